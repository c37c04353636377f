package viewer

// Expanded is the set of expanded block ids. It is copy-on-write so model
// values can be copied freely.
type Expanded struct {
	ids map[int64]bool
}

func (e Expanded) Has(id int64) bool { return e.ids[id] }

func (e Expanded) Len() int { return len(e.ids) }

func (e Expanded) Toggle(id int64) Expanded {
	next := e.clone()
	if next.ids[id] {
		delete(next.ids, id)
	} else {
		next.ids[id] = true
	}
	return next
}

func (e Expanded) Expand(ids ...int64) Expanded {
	next := e.clone()
	for _, id := range ids {
		next.ids[id] = true
	}
	return next
}

// Retain drops ids that are no longer present, e.g. after a re-fetch.
func (e Expanded) Retain(present []int64) Expanded {
	keep := make(map[int64]bool, len(present))
	for _, id := range present {
		if e.ids[id] {
			keep[id] = true
		}
	}
	return Expanded{ids: keep}
}

func (e Expanded) clone() Expanded {
	ids := make(map[int64]bool, len(e.ids)+1)
	for k, v := range e.ids {
		ids[k] = v
	}
	return Expanded{ids: ids}
}
