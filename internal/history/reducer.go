package history

// Action is a state transition over a Project. The set of actions is closed.
type Action interface {
	apply(Project) Project
}

type AppendEdit struct{ Image ImageRef }

type Undo struct{}

type Redo struct{}

type SaveSnapshot struct{ Name string }

type JumpToSaved struct{ Image ImageRef }

func (a AppendEdit) apply(p Project) Project   { return p.AppendEdit(a.Image) }
func (Undo) apply(p Project) Project           { return p.Undo() }
func (Redo) apply(p Project) Project           { return p.Redo() }
func (a SaveSnapshot) apply(p Project) Project { return p.SaveSnapshot(a.Name) }
func (a JumpToSaved) apply(p Project) Project  { return p.JumpToSaved(a.Image) }

// Reduce applies action to p and returns the resulting project. p itself is
// left untouched.
func Reduce(p Project, action Action) Project {
	if action == nil {
		return p
	}
	return action.apply(p)
}
