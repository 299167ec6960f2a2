package catalog

import "testing"

func TestInspect(t *testing.T) {
	tests := []struct {
		name           string
		titles         []string
		matrix         [][]float64
		wantAsymmetric int
		wantSelfNotMax []int
		wantDuplicates int
		wantMin        float64
		wantMax        float64
	}{
		{
			name:   "clean symmetric",
			titles: []string{"A", "B", "C"},
			matrix: [][]float64{
				{1.0, 0.2, 0.9},
				{0.2, 1.0, 0.1},
				{0.9, 0.1, 1.0},
			},
			wantMin: 0.1,
			wantMax: 1.0,
		},
		{
			name:   "asymmetric pair",
			titles: []string{"A", "B"},
			matrix: [][]float64{
				{1.0, 0.3},
				{0.4, 1.0},
			},
			wantAsymmetric: 1,
			wantMin:        0.3,
			wantMax:        1.0,
		},
		{
			name:   "self not max",
			titles: []string{"A", "B", "C"},
			matrix: [][]float64{
				{0.5, 0.9, 0.8},
				{0.9, 1.0, 0.1},
				{0.8, 0.1, 1.0},
			},
			wantSelfNotMax: []int{0},
			wantMin:        0.1,
			wantMax:        1.0,
		},
		{
			name:   "duplicate titles",
			titles: []string{"Heat", "Heat"},
			matrix: [][]float64{
				{1.0, -0.5},
				{-0.5, 1.0},
			},
			wantDuplicates: 1,
			wantMin:        -0.5,
			wantMax:        1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(testMovies(tt.titles...), tt.matrix)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			r := Inspect(c)
			if r.Movies != len(tt.titles) {
				t.Errorf("Movies = %d, want %d", r.Movies, len(tt.titles))
			}
			if r.AsymmetricPairs != tt.wantAsymmetric {
				t.Errorf("AsymmetricPairs = %d, want %d", r.AsymmetricPairs, tt.wantAsymmetric)
			}
			if r.Symmetric() != (tt.wantAsymmetric == 0) {
				t.Errorf("Symmetric() = %v", r.Symmetric())
			}
			if len(r.SelfNotMax) != len(tt.wantSelfNotMax) {
				t.Fatalf("SelfNotMax = %v, want %v", r.SelfNotMax, tt.wantSelfNotMax)
			}
			for i := range tt.wantSelfNotMax {
				if r.SelfNotMax[i] != tt.wantSelfNotMax[i] {
					t.Errorf("SelfNotMax = %v, want %v", r.SelfNotMax, tt.wantSelfNotMax)
				}
			}
			if len(r.Duplicates) != tt.wantDuplicates {
				t.Errorf("Duplicates = %v, want %d entries", r.Duplicates, tt.wantDuplicates)
			}
			if r.MinScore != tt.wantMin || r.MaxScore != tt.wantMax {
				t.Errorf("score range = [%v, %v], want [%v, %v]", r.MinScore, r.MaxScore, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestInspect_MaxAsymmetry(t *testing.T) {
	c, err := New(testMovies("A", "B", "C"), [][]float64{
		{1.0, 0.3, 0.5},
		{0.5, 1.0, 0.2},
		{0.1, 0.2, 1.0},
	})
	if err != nil {
		t.Fatal(err)
	}

	r := Inspect(c)
	if r.AsymmetricPairs != 2 {
		t.Errorf("AsymmetricPairs = %d, want 2", r.AsymmetricPairs)
	}
	if diff := r.MaxAsymmetry - 0.4; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("MaxAsymmetry = %v, want 0.4", r.MaxAsymmetry)
	}
}
