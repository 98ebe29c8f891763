package zigzag_test

import (
	"fmt"

	zigzag "github.com/storageproofs/zigzag"
	"github.com/storageproofs/zigzag/challenge"
)

func Example_satisfiesRequirements() {
	pp := zigzag.PublicParams{LayerChallenges: challenge.LayerChallenges{Layers: 10, Count: 5}}
	req := challenge.Requirements{MinimumChallenges: 8}

	fmt.Println(pp.SatisfiesRequirements(req, 1))
	fmt.Println(pp.SatisfiesRequirements(req, 2))

	// Output:
	// false
	// true
}
