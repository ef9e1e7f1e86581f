// Package widgets implements the small editor actions around a translation:
// pair swapping, copying, speaking and the character counter.
package widgets

import "github.com/verte-zerg/tuilate/internal/model"

// SwapResult is the editor state after a swap.
type SwapResult struct {
	Pair    string
	Input   string
	Output  string
	Swapped bool
}

// ReversePair returns "B-A" for "A-B" when that key is available. Otherwise
// the pair is returned unchanged with ok false.
func ReversePair(pair string, available []string) (string, bool) {
	source, target, ok := model.SplitPair(pair)
	if !ok {
		return pair, false
	}
	reversed := target + "-" + source
	for _, candidate := range available {
		if candidate == reversed {
			return reversed, true
		}
	}
	return pair, false
}

// Swap reverses the pair and, if there is output, promotes it to the input.
func Swap(pair string, available []string, input, output string) SwapResult {
	next, swapped := ReversePair(pair, available)
	res := SwapResult{Pair: next, Input: input, Output: output, Swapped: swapped}
	if output != "" {
		res.Input = output
		res.Output = ""
	}
	return res
}
