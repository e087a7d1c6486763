// Package internal holds helpers shared by the rv32i packages.
package internal

import (
	"iter"
)

// IterSeq2Concat concatenates key/value iterators, such as the define
// tables of several devices, into a single iterator sequence.
func IterSeq2Concat[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for key, value := range seq {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}
