package warehouse

import (
	"testing"
)

func TestTotalAmount(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		unitPrice float64
		discount  float64
		want      float64
	}{
		{"no discount", 2, 10.00, 0.0, 20.00},
		{"ten percent off", 3, 19.99, 0.10, 53.97},
		{"full discount", 5, 100.00, 1.0, 0.00},
		{"rounds down", 1, 19.994, 0.0, 19.99},
		{"rounds up", 1, 19.996, 0.0, 20.00},
		{"single unit", 1, 0.99, 0.0, 0.99},
		{"fractional result", 7, 3.33, 0.15, 19.81},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TotalAmount(tt.quantity, tt.unitPrice, tt.discount)
			if got != tt.want {
				t.Errorf("TotalAmount(%d, %v, %v) = %v, want %v",
					tt.quantity, tt.unitPrice, tt.discount, got, tt.want)
			}
		})
	}
}

func TestValidateMeasures(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		unitPrice float64
		discount  float64
		wantErr   bool
	}{
		{"valid", 3, 19.99, 0.10, false},
		{"free item", 1, 0.0, 0.0, false},
		{"boundary discount", 1, 10.0, 1.0, false},
		{"zero quantity", 0, 10.0, 0.0, true},
		{"negative quantity", -2, 10.0, 0.0, true},
		{"negative price", 1, -0.01, 0.0, true},
		{"discount above one", 1, 10.0, 1.5, true},
		{"negative discount", 1, 10.0, -0.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMeasures(tt.quantity, tt.unitPrice, tt.discount)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMeasures(%d, %v, %v) error = %v, wantErr %v",
					tt.quantity, tt.unitPrice, tt.discount, err, tt.wantErr)
			}
		})
	}
}

func TestNewFactLoaderBatchSizeFloor(t *testing.T) {
	l := NewFactLoader(nil, 0)
	if l.batchSize != 1 {
		t.Errorf("batchSize = %d, want 1", l.batchSize)
	}
}
