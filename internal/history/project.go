package history

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyName = errors.New("project name is required")
	ErrNoImages  = errors.New("at least one source image is required")
)

// SavedVersion is a named, frozen copy of an image the user chose to keep.
type SavedVersion struct {
	Name  string   `json:"name"`
	Image ImageRef `json:"image"`
}

// Project is the aggregate for one editing session.
//
// CurrentVersion is a cursor into History: 0 shows the original photo,
// k > 0 shows History[k-1]. It always lies in [0, len(History)].
type Project struct {
	Name           string
	OriginalImages []ImageRef
	History        []ImageRef
	CurrentVersion int
	SavedVersions  []SavedVersion
	InitialOptions []string
}

// NewProject creates a project with an empty history.
func NewProject(name string, originals []ImageRef, options []string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, ErrEmptyName
	}
	if len(originals) == 0 {
		return Project{}, ErrNoImages
	}
	return Project{
		Name:           name,
		OriginalImages: append([]ImageRef(nil), originals...),
		InitialOptions: append([]string(nil), options...),
	}, nil
}

// DisplayedImage is the image the presentation layer should show.
func (p Project) DisplayedImage() ImageRef {
	if p.CurrentVersion == 0 {
		if len(p.OriginalImages) == 0 {
			return ImageRef{}
		}
		return p.OriginalImages[0]
	}
	return p.History[p.CurrentVersion-1]
}

// CurrentEdit returns the image under the cursor, or false when no edit is
// selected yet.
func (p Project) CurrentEdit() (ImageRef, bool) {
	if p.CurrentVersion == 0 || len(p.History) == 0 {
		return ImageRef{}, false
	}
	return p.History[p.CurrentVersion-1], true
}

func (p Project) HasEdits() bool { return len(p.History) > 0 }

// CanUndo mirrors Undo: the cursor never goes back below the first edit.
func (p Project) CanUndo() bool { return p.CurrentVersion > 1 }

func (p Project) CanRedo() bool { return p.CurrentVersion < len(p.History) }

// SavedImage returns the image of the saved version at index i.
func (p Project) SavedImage(i int) (ImageRef, error) {
	if i < 0 || i >= len(p.SavedVersions) {
		return ImageRef{}, fmt.Errorf("saved version %d does not exist", i)
	}
	return p.SavedVersions[i].Image, nil
}

// AppendEdit discards everything after the cursor and appends image as the
// new tip.
func (p Project) AppendEdit(image ImageRef) Project {
	next := p.Clone()
	k := clampCursor(p.CurrentVersion, len(p.History))
	h := make([]ImageRef, k, k+1)
	copy(h, p.History[:k])
	next.History = append(h, image)
	next.CurrentVersion = len(next.History)
	return next
}

func (p Project) Undo() Project {
	if p.CurrentVersion <= 1 {
		return p
	}
	next := p.Clone()
	next.CurrentVersion--
	return next
}

func (p Project) Redo() Project {
	if p.CurrentVersion >= len(p.History) {
		return p
	}
	next := p.Clone()
	next.CurrentVersion++
	return next
}

// SaveSnapshot stores the current edit under name. An empty name becomes
// "Version N". Without a current edit there is nothing to save.
func (p Project) SaveSnapshot(name string) Project {
	image, ok := p.CurrentEdit()
	if !ok {
		return p
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Version %d", len(p.SavedVersions)+1)
	}
	next := p.Clone()
	next.SavedVersions = append(next.SavedVersions, SavedVersion{Name: name, Image: image})
	return next
}

// JumpToSaved re-enters a saved image into the live timeline as a new tip.
func (p Project) JumpToSaved(image ImageRef) Project {
	return p.AppendEdit(image)
}

// Clone returns a copy that shares no backing arrays with p.
func (p Project) Clone() Project {
	return Project{
		Name:           p.Name,
		OriginalImages: append([]ImageRef(nil), p.OriginalImages...),
		History:        append([]ImageRef(nil), p.History...),
		CurrentVersion: p.CurrentVersion,
		SavedVersions:  append([]SavedVersion(nil), p.SavedVersions...),
		InitialOptions: append([]string(nil), p.InitialOptions...),
	}
}

func clampCursor(cursor, length int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > length {
		return length
	}
	return cursor
}
