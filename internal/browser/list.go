package browser

import "github.com/simp-lee/storeadmin/internal/domain"

// EmptyMessage is shown for a successful fetch with no rows.
const EmptyMessage = "Nothing to display"

// ViewState is the visual state of a rendered list. The states are mutually exclusive.
type ViewState string

const (
	ViewLoading ViewState = "loading"
	ViewFailure ViewState = "failure"
	ViewEmpty   ViewState = "empty"
	ViewSuccess ViewState = "success"
)

// Row is one rendered list entry.
type Row struct {
	ID       uint   `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// ListView is what a list renders for a FetchResult. Rows is only populated
// in the success state.
type ListView struct {
	State   ViewState `json:"state"`
	Message string    `json:"message,omitempty"`
	Rows    []Row     `json:"rows"`
}

// RenderList turns result into a ListView, labelling each item with
// renderItem and flagging the row whose ID matches selected.
func RenderList[T domain.Entity](result FetchResult[T], selected *T, renderItem func(T) string) ListView {
	switch result.Status {
	case StatusLoading:
		return ListView{State: ViewLoading, Rows: []Row{}}
	case StatusFailure:
		msg := result.Message
		if msg == "" {
			msg = FallbackMessage
		}
		return ListView{State: ViewFailure, Message: msg, Rows: []Row{}}
	}

	if len(result.Items) == 0 {
		return ListView{State: ViewEmpty, Message: EmptyMessage, Rows: []Row{}}
	}

	rows := make([]Row, 0, len(result.Items))
	for _, item := range result.Items {
		id := item.EntityID()
		rows = append(rows, Row{
			ID:       id,
			Label:    renderItem(item),
			Selected: selected != nil && (*selected).EntityID() == id,
		})
	}
	return ListView{State: ViewSuccess, Rows: rows}
}

// List is a selectable collection of loaded items.
type List[T domain.Entity] struct {
	Items []T
	// OnSelect is called once for each successful Select.
	OnSelect func(T)
}

// Select looks id up among the loaded items and reports it to OnSelect.
// It returns false, without calling OnSelect, when id is not loaded.
func (l List[T]) Select(id uint) bool {
	for _, item := range l.Items {
		if item.EntityID() != id {
			continue
		}
		if l.OnSelect != nil {
			l.OnSelect(item)
		}
		return true
	}
	return false
}
