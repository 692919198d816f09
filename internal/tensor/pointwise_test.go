package tensor

import "testing"

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		nx, ny  int
		want    []int
		wantErr bool
	}{
		{"identity", IdentityExpr, 1, 1, []int{0}, false},
		{"swap", "y0=x1; y1=x0", 2, 2, []int{1, 0}, false},
		{"fan out", " y1 = x0 ; y0 = x0 ; ", 1, 2, []int{0, 0}, false},
		{"arithmetic", "y0=x0+x1;", 2, 1, nil, true},
		{"input out of range", "y0=x2;", 2, 1, nil, true},
		{"assigned twice", "y0=x0;y0=x0;", 1, 1, nil, true},
		{"unassigned output", "y0=x0;", 1, 2, nil, true},
		{"not an assignment", "x0;", 1, 1, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAssignments(tt.expr, tt.nx, tt.ny)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAssignments(%q) = %v, want error", tt.expr, got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !Shape(got).Equal(tt.want) {
				t.Errorf("ParseAssignments(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}
