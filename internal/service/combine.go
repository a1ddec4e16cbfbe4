package service

import (
	"github.com/samber/lo"

	"github.com/dshills/embedls/internal/lsp"
)

// Flatten concatenates slice results in dispatch order.
func Flatten[T any](results [][]T) []T {
	return lo.Flatten(results)
}

// MergeCompletionLists concatenates the items of every list. The merged list
// is incomplete if any list is.
func MergeCompletionLists(lists []*lsp.CompletionList) *lsp.CompletionList {
	merged := &lsp.CompletionList{Items: []lsp.CompletionItem{}}
	for _, l := range lists {
		merged.IsIncomplete = merged.IsIncomplete || l.IsIncomplete
		merged.Items = append(merged.Items, l.Items...)
	}
	return merged
}

// CombinePrepareRename prefers any range over any error. Without a range,
// the first error is returned as a fresh copy of itself. Results holding
// neither are skipped.
func CombinePrepareRename(prepares []*PrepareRenameResult) *PrepareRenameResult {
	if r, ok := lo.Find(prepares, func(p *PrepareRenameResult) bool { return p.Range != nil }); ok {
		return r
	}
	if r, ok := lo.Find(prepares, func(p *PrepareRenameResult) bool { return p.Err != nil }); ok {
		return &PrepareRenameResult{Err: r.Err.Clone()}
	}
	if len(prepares) == 0 {
		return nil
	}
	return &PrepareRenameResult{}
}
