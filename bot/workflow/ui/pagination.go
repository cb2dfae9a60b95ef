package ui

import (
	"fmt"

	"TripBot/bot/workflow"
)

const PageMissing = "This page does not exist"

// TotalPages is ceil(count/size), never less than one.
func TotalPages(count, size int) int {
	if size <= 0 {
		return 1
	}
	pages := count / size
	if count%size > 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return pages
}

// CheckPage reports whether a zero-based page exists. Page 0 always exists so
// empty lists can render their empty state.
func CheckPage(page, size, count int) bool {
	if page < 0 {
		return false
	}
	if page == 0 {
		return true
	}
	return page*size < count
}

// GetPageSlice returns the items of a zero-based page.
func GetPageSlice[T any](items []T, page, size int) []T {
	if page < 0 {
		page = 0
	}
	start := page * size
	if start >= len(items) {
		return nil
	}
	end := min(start+size, len(items))
	return items[start:end]
}

// NavRow renders [◀️] [page/total] [▶️]; nil when there is a single page.
func NavRow(prevData, nextData string, page, total int) []workflow.Button {
	if total <= 1 {
		return nil
	}
	return []workflow.Button{
		{Text: "◀️", Data: prevData},
		{Text: fmt.Sprintf("%d/%d", page+1, total), Data: workflow.ActionNoop},
		{Text: "▶️", Data: nextData},
	}
}

// Pager keeps a per-user current page for one list.
type Pager struct {
	Size  int
	pages *workflow.Store[int]
}

func NewPager(size int) *Pager {
	return &Pager{Size: size, pages: workflow.NewStore[int]()}
}

func (p *Pager) Current(user int64) int {
	page, _ := p.pages.Get(user)
	return page
}

func (p *Pager) Reset(user int64) {
	p.pages.Remove(user)
}

// Move shifts the user's page by delta. The page is left unchanged and ok is
// false when the target page does not exist.
func (p *Pager) Move(user int64, delta, count int) (page int, ok bool) {
	target := p.Current(user) + delta
	if !CheckPage(target, p.Size, count) {
		return p.Current(user), false
	}
	p.pages.Set(user, target)
	return target, true
}
