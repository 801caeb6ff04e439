package payments

import (
	"errors"
	"strings"
	"testing"
)

type MockChecker struct {
	taken map[string]bool
	fail  bool
}

func (m *MockChecker) ExistsByReference(code string) (bool, error) {
	if m.fail {
		return false, errors.New("db error")
	}
	return m.taken[code], nil
}

func TestGenerateReferenceCode(t *testing.T) {
	checker := &MockChecker{taken: map[string]bool{}}

	code, err := GenerateReferenceCode(PrefixInitial, checker)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(code, "PAY-") {
		t.Errorf("Expected PAY- prefix, got %s", code)
	}
	if len(code) != len("PAY-")+refCodeLength {
		t.Errorf("Expected length %d, got %d", len("PAY-")+refCodeLength, len(code))
	}

	code, err = GenerateReferenceCode(PrefixRenewal, checker)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(code, "REN-") {
		t.Errorf("Expected REN- prefix, got %s", code)
	}

	for _, r := range strings.TrimPrefix(code, "REN-") {
		if !strings.ContainsRune(refCodeChars, r) {
			t.Errorf("Code contains character outside alphabet: %c", r)
		}
	}
}

func TestGenerateReferenceCodeCheckerError(t *testing.T) {
	checker := &MockChecker{fail: true}

	_, err := GenerateReferenceCode(PrefixInitial, checker)
	if err == nil {
		t.Error("Expected error from failing checker, got nil")
	}
}
