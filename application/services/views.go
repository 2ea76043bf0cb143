package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"conceptmap/application/editor"
	"conceptmap/application/ports"
	"conceptmap/domain/services/linking"
	"conceptmap/domain/versioning"
)

// MapView is what the canvas renders after every operation
type MapView struct {
	ID          string             `json:"id"`
	Title       string             `json:"title,omitempty"`
	LessonID    string             `json:"lessonId,omitempty"`
	Version     int                `json:"version"`
	Dirty       bool               `json:"dirty"`
	Checksum    string             `json:"checksum,omitempty"`
	Nodes       []ports.NodeRecord `json:"nodes"`
	Edges       []ports.EdgeRecord `json:"edges"`
	PendingEdge *ports.EdgeRecord  `json:"pendingEdge,omitempty"`
	Drag        DragView           `json:"drag"`
	Edit        EditView           `json:"edit"`
}

// DragView describes the drag controller
type DragView struct {
	State     string  `json:"state"`
	NodeID    string  `json:"nodeId,omitempty"`
	Threshold float64 `json:"threshold"`
}

// EditView describes the edit session
type EditView struct {
	Open   bool              `json:"open"`
	Kind   string            `json:"kind,omitempty"`
	ID     string            `json:"id,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// CandidateView is an auto-link proposal
type CandidateView struct {
	ID       string  `json:"id"`
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Distance float64 `json:"distance"`
}

// DragOutcome is returned by every drag step
type DragOutcome struct {
	Map       *MapView       `json:"map"`
	Candidate *CandidateView `json:"candidate,omitempty"`
	Linked    bool           `json:"linked"`
	EdgeID    string         `json:"edgeId,omitempty"`
}

func buildView(ws *Workspace) *MapView {
	snap := ws.graph.Snapshot()

	view := &MapView{
		ID:       snap.MapID.String(),
		Title:    ws.meta.Title,
		LessonID: ws.meta.LessonID,
		Version:  ws.meta.Version,
		Dirty:    len(ws.graph.GetUncommittedEvents()) > 0,
		Nodes:    make([]ports.NodeRecord, 0, len(snap.Nodes)),
		Edges:    make([]ports.EdgeRecord, 0, len(snap.Edges)),
		Drag: DragView{
			State:     ws.drag.State().String(),
			Threshold: ws.drag.Threshold(),
		},
	}

	for _, n := range snap.Nodes {
		view.Nodes = append(view.Nodes, NodeRecordOf(n))
	}
	for _, e := range snap.Edges {
		view.Edges = append(view.Edges, EdgeRecordOf(e))
	}
	if snap.PendingEdge != nil {
		pending := EdgeRecordOf(snap.PendingEdge)
		pending.Temporary = true
		view.PendingEdge = &pending
	}

	if id, ok := ws.drag.ActiveNode(); ok {
		view.Drag.NodeID = id.String()
	}

	if target, ok := ws.edit.Target(); ok {
		view.Edit = EditView{Open: true, Kind: string(target.Kind), Fields: ws.edit.Draft()}
		if target.Kind == editor.EntityEdge {
			view.Edit.ID = target.EdgeID.String()
		} else {
			view.Edit.ID = target.NodeID.String()
		}
	}

	return view
}

// buildCheckedView adds the content checksum, used as the ETag of a map
func buildCheckedView(ws *Workspace) (*MapView, error) {
	view := buildView(ws)
	sum, err := versioning.Checksum(ws.graph.Snapshot())
	if err != nil {
		return nil, err
	}
	view.Checksum = sum
	return view, nil
}

// ETag identifies the whole response body: the content checksum plus a
// digest of the session state (pending edge, drag, edit, dirty flag,
// version, title). It is empty when no checksum was computed.
func (v *MapView) ETag() string {
	if v == nil || v.Checksum == "" {
		return ""
	}
	state, err := json.Marshal(struct {
		Title       string            `json:"title"`
		LessonID    string            `json:"lessonId"`
		Version     int               `json:"version"`
		Dirty       bool              `json:"dirty"`
		PendingEdge *ports.EdgeRecord `json:"pendingEdge"`
		Drag        DragView          `json:"drag"`
		Edit        EditView          `json:"edit"`
	}{v.Title, v.LessonID, v.Version, v.Dirty, v.PendingEdge, v.Drag, v.Edit})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(state)
	return `"` + v.Checksum + "-" + hex.EncodeToString(sum[:8]) + `"`
}

func candidateView(c *linking.Candidate) *CandidateView {
	if c == nil {
		return nil
	}
	return &CandidateView{
		ID:       c.ID.String(),
		Source:   c.Source.String(),
		Target:   c.Target.String(),
		Distance: c.Distance,
	}
}
