package report

import "fmt"

// ageBoundaries are the fixed age-group edges. A value v falls in bucket i
// when ageBoundaries[i] <= v < ageBoundaries[i+1]; anything outside the
// range lands in the overflow bucket.
var ageBoundaries = []int{0, 18, 30, 45, 60, 100}

// OverflowBucket labels ages outside the boundary range.
const OverflowBucket = "Other"

// AgeBucketLabel returns the label of the bucket the age falls in, e.g.
// "18-29", or OverflowBucket for out-of-range values.
func AgeBucketLabel(age int) string {
	for i := 0; i < len(ageBoundaries)-1; i++ {
		if age >= ageBoundaries[i] && age < ageBoundaries[i+1] {
			return fmt.Sprintf("%d-%d", ageBoundaries[i], ageBoundaries[i+1]-1)
		}
	}
	return OverflowBucket
}

// BucketAges groups ages into the fixed buckets, returning only non-empty
// buckets in boundary order with the overflow bucket last.
func BucketAges(ages []int) []ValueCount {
	counts := make(map[string]int)
	for _, age := range ages {
		counts[AgeBucketLabel(age)]++
	}

	var out []ValueCount
	for i := 0; i < len(ageBoundaries)-1; i++ {
		label := fmt.Sprintf("%d-%d", ageBoundaries[i], ageBoundaries[i+1]-1)
		if n := counts[label]; n > 0 {
			out = append(out, ValueCount{Value: label, Count: n})
		}
	}
	if n := counts[OverflowBucket]; n > 0 {
		out = append(out, ValueCount{Value: OverflowBucket, Count: n})
	}
	return out
}
