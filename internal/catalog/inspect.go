package catalog

import "math"

// symmetryTolerance absorbs float noise in precomputed matrices.
const symmetryTolerance = 1e-9

// Report summarizes dataset properties that do not make a catalog invalid but
// are worth knowing about before serving it.
type Report struct {
	Movies     int
	Duplicates map[string][]int
	// AsymmetricPairs counts pairs (i<j) where score(i,j) != score(j,i).
	AsymmetricPairs int
	MaxAsymmetry    float64
	// SelfNotMax lists rows whose diagonal is lower than another score in the
	// row. Those movies are still never recommended for themselves.
	SelfNotMax []int
	MinScore   float64
	MaxScore   float64
}

func Inspect(c *Catalog) Report {
	r := Report{
		Movies:     c.Len(),
		Duplicates: c.Duplicates(),
		MinScore:   math.Inf(1),
		MaxScore:   math.Inf(-1),
	}

	for i, row := range c.matrix {
		for j, score := range row {
			r.MinScore = math.Min(r.MinScore, score)
			r.MaxScore = math.Max(r.MaxScore, score)

			if j > i {
				if diff := math.Abs(score - c.matrix[j][i]); diff > symmetryTolerance {
					r.AsymmetricPairs++
					r.MaxAsymmetry = math.Max(r.MaxAsymmetry, diff)
				}
			}
			if j != i && score > row[i] {
				if len(r.SelfNotMax) == 0 || r.SelfNotMax[len(r.SelfNotMax)-1] != i {
					r.SelfNotMax = append(r.SelfNotMax, i)
				}
			}
		}
	}

	return r
}

func (r Report) Symmetric() bool {
	return r.AsymmetricPairs == 0
}
