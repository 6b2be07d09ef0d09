package workshop

import "strings"

// collection returns a pointer to the item slice addressed by phase and
// moduleID. For the features phase the module bucket is created when create
// is set.
func (s *Session) collection(phase Phase, moduleID string, create bool) (*[]Item, error) {
	switch phase {
	case PhaseProblemFraming:
		return &s.Data.Problems, nil
	case PhaseActors:
		return &s.Data.Actors, nil
	case PhaseKPIs:
		return &s.Data.KPIs, nil
	case PhaseModules:
		return &s.Data.Modules, nil
	case PhaseFeatures:
		moduleID = strings.TrimSpace(moduleID)
		if moduleID == "" {
			return nil, validation("moduleId", "is required for features")
		}
		if s.Data.Features == nil {
			s.Data.Features = map[string][]Item{}
		}
		if _, ok := s.Data.Features[moduleID]; !ok {
			if !create {
				return nil, NotFound("module", moduleID)
			}
			s.Data.Features[moduleID] = []Item{}
		}
		bucket := s.Data.Features[moduleID]
		return &bucket, nil
	default:
		return nil, validation("phase", "phase %q does not hold items", phase)
	}
}

// store writes back a features bucket; other phases alias the session slice.
func (s *Session) store(phase Phase, moduleID string, items []Item) {
	switch phase {
	case PhaseProblemFraming:
		s.Data.Problems = items
	case PhaseActors:
		s.Data.Actors = items
	case PhaseKPIs:
		s.Data.KPIs = items
	case PhaseModules:
		s.Data.Modules = items
	case PhaseFeatures:
		s.Data.Features[strings.TrimSpace(moduleID)] = items
	}
}

func parseItemPhase(raw string) (Phase, error) {
	phase, ok := ParsePhase(raw)
	if !ok {
		return "", invalidPhase(raw)
	}
	if !phase.HoldsItems() {
		return "", validation("phase", "phase %q does not hold items", phase)
	}
	return phase, nil
}

// AddItem appends a new item to the collection of phase.
func AddItem(session *Session, rawPhase, text, moduleID, createdBy string) (Item, error) {
	phase, err := parseItemPhase(rawPhase)
	if err != nil {
		return Item{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Item{}, validation("text", "must not be empty")
	}
	items, err := session.collection(phase, moduleID, true)
	if err != nil {
		return Item{}, err
	}
	x, y := placement()
	item := Item{
		ID:        newID(),
		Text:      text,
		CreatedAt: timeNow().UTC(),
		CreatedBy: strings.TrimSpace(createdBy),
		X:         x,
		Y:         y,
	}
	session.store(phase, moduleID, append(*items, item))
	session.touch()
	return item, nil
}

// EditItem replaces the text of an item. Groups referencing the item pick up
// the new text on their next read.
func EditItem(session *Session, rawPhase, itemID, text, moduleID string) (Item, error) {
	phase, err := parseItemPhase(rawPhase)
	if err != nil {
		return Item{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Item{}, validation("text", "must not be empty")
	}
	items, err := session.collection(phase, moduleID, false)
	if err != nil {
		return Item{}, err
	}
	for i := range *items {
		if (*items)[i].ID == itemID {
			(*items)[i].Text = text
			session.store(phase, moduleID, *items)
			session.touch()
			return (*items)[i], nil
		}
	}
	return Item{}, NotFound("item", itemID)
}

// DeleteItem removes an item and clears the phase's group set, since the
// stored partition no longer covers the collection.
func DeleteItem(session *Session, rawPhase, itemID, moduleID string) error {
	phase, err := parseItemPhase(rawPhase)
	if err != nil {
		return err
	}
	items, err := session.collection(phase, moduleID, false)
	if err != nil {
		return err
	}
	idx := -1
	for i, item := range *items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return NotFound("item", itemID)
	}
	remaining := make([]Item, 0, len(*items)-1)
	remaining = append(remaining, (*items)[:idx]...)
	remaining = append(remaining, (*items)[idx+1:]...)
	session.store(phase, moduleID, remaining)
	if phase.Grouped() {
		session.setGroups(phase, []Group{})
	}
	session.touch()
	return nil
}

// ListItems returns a copy of the collection in insertion order.
func ListItems(session *Session, rawPhase, moduleID string) ([]Item, error) {
	phase, err := parseItemPhase(rawPhase)
	if err != nil {
		return nil, err
	}
	if phase == PhaseFeatures && strings.TrimSpace(moduleID) != "" {
		if _, ok := session.Data.Features[strings.TrimSpace(moduleID)]; !ok {
			return []Item{}, nil
		}
	}
	items, err := session.collection(phase, moduleID, false)
	if err != nil {
		return nil, err
	}
	out := cloneItems(*items)
	if out == nil {
		out = []Item{}
	}
	return out, nil
}

// FindFeature looks a feature item up across every module.
func (s *Session) FindFeature(featureID string) (Item, string, bool) {
	for moduleID, items := range s.Data.Features {
		for _, item := range items {
			if item.ID == featureID {
				return item, moduleID, true
			}
		}
	}
	return Item{}, "", false
}

// FindModule looks a module item up by id.
func (s *Session) FindModule(moduleID string) (Item, bool) {
	for _, item := range s.Data.Modules {
		if item.ID == moduleID {
			return item, true
		}
	}
	return Item{}, false
}
