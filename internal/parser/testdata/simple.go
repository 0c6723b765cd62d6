package testdata

//go:generate boxarray

// Score is a defined type; elem=Score resolves through it.
type Score uint32

// @boxed name=Seq size=3
// @boxed name=squares size=5 mode=inline try

/*
@boxed name=Scores size=0x10 elem=Score
*/

// Not a directive: @boxed appears mid-sentence.
var table = [2]int{1, 2}

func helper() {}

type node struct {
	next *node
}

func (n *node) Len() int { return 0 }
