package payments

import (
	"testing"
)

func TestGenerateReferenceQR(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		size    int
		wantErr bool
	}{
		{
			name:    "Valid QR Code",
			code:    "PAY-7FK2Q9ZD",
			size:    512,
			wantErr: false,
		},
		{
			name:    "Default Size",
			code:    "REN-AB12CD34",
			size:    0,
			wantErr: false,
		},
		{
			name:    "Size Too Small",
			code:    "PAY-7FK2Q9ZD",
			size:    64,
			wantErr: true,
		},
		{
			name:    "Size Too Large",
			code:    "PAY-7FK2Q9ZD",
			size:    5000,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateReferenceQR(tt.code, tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("GenerateReferenceQR() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && len(got) == 0 {
				t.Errorf("GenerateReferenceQR() returned empty bytes")
			}
		})
	}
}
