package view

// Action is a user intent applied by Reduce.
type Action interface {
	isAction()
}

// Actions.
type (
	SelectTab    struct{ Tab Tab }
	SetSearch    struct{ Text string }
	SetBuilding  struct{ Building string }
	SetDay       struct{ Day string }
	SetTimeOfDay struct{ TimeOfDay string }
	ClearFilters struct{}
	ToggleSort   struct{}
	NextPage     struct{}
	PrevPage     struct{}
	GoToPage     struct{ Page int }
	SetPageSize  struct{ Size int }
)

func (SelectTab) isAction()    {}
func (SetSearch) isAction()    {}
func (SetBuilding) isAction()  {}
func (SetDay) isAction()       {}
func (SetTimeOfDay) isAction() {}
func (ClearFilters) isAction() {}
func (ToggleSort) isAction()   {}
func (NextPage) isAction()     {}
func (PrevPage) isAction()     {}
func (GoToPage) isAction()     {}
func (SetPageSize) isAction()  {}

// Reduce returns the state after a. Changing tab, filters or page size
// returns to the first page. Pages never go below zero; the upper bound is
// applied by Apply since it depends on the data.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SelectTab:
		if a.Tab == s.Tab {
			return s
		}
		s.Tab = a.Tab
		s.Page = 0
	case SetSearch:
		s.Filters.Search = a.Text
		s.Page = 0
	case SetBuilding:
		s.Filters.Building = a.Building
		s.Page = 0
	case SetDay:
		s.Filters.Day = a.Day
		s.Page = 0
	case SetTimeOfDay:
		s.Filters.TimeOfDay = a.TimeOfDay
		s.Page = 0
	case ClearFilters:
		s.Filters = Filters{}
		s.Page = 0
	case ToggleSort:
		s.SortDesc = !s.SortDesc
	case NextPage:
		s.Page++
	case PrevPage:
		s.Page = max(0, s.Page-1)
	case GoToPage:
		s.Page = max(0, a.Page)
	case SetPageSize:
		if a.Size > 0 {
			s.PageSize = a.Size
			s.Page = 0
		}
	}
	return s
}
