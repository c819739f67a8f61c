package scenegraph

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/perch/internal/discovery"
)

// Snapshot files let a captured desktop be replayed offline:
//
//	scenes:
//	  - id: 0
//	    name: main
//	    state: foreground-active
//	    windows:
//	      - id: 23068675
//	        title: editor
//	        key: true
//	        presents:
//	          id: 23068690
//	          title: Save As
type snapshotDoc struct {
	Scenes []sceneDoc `yaml:"scenes"`
}

type sceneDoc struct {
	ID      int         `yaml:"id"`
	Name    string      `yaml:"name,omitempty"`
	State   string      `yaml:"state"`
	Windows []windowDoc `yaml:"windows,omitempty"`
}

type windowDoc struct {
	ID         ID              `yaml:"id"`
	Title      string          `yaml:"title,omitempty"`
	AppID      string          `yaml:"app_id,omitempty"`
	Key        bool            `yaml:"key,omitempty"`
	Hidden     bool            `yaml:"hidden,omitempty"`
	Bounds     Rect            `yaml:"bounds,omitempty"`
	Navigation bool            `yaml:"navigation,omitempty"`
	Stack      []controllerDoc `yaml:"stack,omitempty"`
	Presents   *controllerDoc  `yaml:"presents,omitempty"`
}

type controllerDoc struct {
	ID         ID              `yaml:"id"`
	Title      string          `yaml:"title,omitempty"`
	Bounds     Rect            `yaml:"bounds,omitempty"`
	Navigation bool            `yaml:"navigation,omitempty"`
	Stack      []controllerDoc `yaml:"stack,omitempty"`
	Presents   *controllerDoc  `yaml:"presents,omitempty"`
}

// Decode reads a YAML snapshot. Unknown fields are rejected.
func Decode(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var doc snapshotDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	b := NewBuilder()
	for _, sd := range doc.Scenes {
		state, ok := discovery.ParseActivationState(sd.State)
		if !ok {
			return nil, fmt.Errorf("scene %d: unknown state %q", sd.ID, sd.State)
		}
		b.AddScene(sd.ID, sd.Name, state)
		for _, wd := range sd.Windows {
			b.AddWindow(sd.ID, WindowSpec{
				ID:         wd.ID,
				Title:      wd.Title,
				AppID:      wd.AppID,
				Key:        wd.Key,
				Hidden:     wd.Hidden,
				Bounds:     wd.Bounds,
				Navigation: wd.Navigation || len(wd.Stack) > 0,
			})
			addLinks(b, wd.ID, wd.Stack, wd.Presents)
		}
	}

	g, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return g, nil
}

func addLinks(b *Builder, parent ID, stack []controllerDoc, presents *controllerDoc) {
	for _, cd := range stack {
		addController(b, cd)
		b.Stack(parent, cd.ID)
	}
	if presents != nil {
		addController(b, *presents)
		b.Present(parent, presents.ID)
	}
}

func addController(b *Builder, cd controllerDoc) {
	b.AddController(ControllerSpec{
		ID:         cd.ID,
		Title:      cd.Title,
		Bounds:     cd.Bounds,
		Navigation: cd.Navigation || len(cd.Stack) > 0,
	})
	addLinks(b, cd.ID, cd.Stack, cd.Presents)
}

// Encode writes g as a YAML snapshot.
func Encode(w io.Writer, g *Graph) error {
	var doc snapshotDoc
	for _, s := range g.Scenes() {
		sd := sceneDoc{ID: s.ID, Name: s.Name, State: s.State.String()}
		for _, win := range s.windows {
			wd := windowDoc{
				ID:     win.ID,
				Title:  win.Title,
				AppID:  win.AppID,
				Key:    win.Key,
				Hidden: win.Hidden,
				Bounds: win.Bounds,
			}
			seen := map[Node]struct{}{win.root: {}}
			if nav, ok := win.root.(*NavigationController); ok {
				wd.Navigation = true
				wd.Stack = encodeStack(nav, seen)
			}
			wd.Presents = encodePresented(win.root, seen)
			sd.Windows = append(sd.Windows, wd)
		}
		doc.Scenes = append(doc.Scenes, sd)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return enc.Close()
}

func encodeNode(n Node, seen map[Node]struct{}) controllerDoc {
	info := n.Info()
	cd := controllerDoc{ID: info.ID, Title: info.Title, Bounds: info.Bounds}
	if nav, ok := n.(*NavigationController); ok {
		cd.Navigation = true
		cd.Stack = encodeStack(nav, seen)
	}
	cd.Presents = encodePresented(n, seen)
	return cd
}

func encodeStack(nav *NavigationController, seen map[Node]struct{}) []controllerDoc {
	var out []controllerDoc
	for _, c := range nav.stack {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, encodeNode(c, seen))
	}
	return out
}

func encodePresented(n Node, seen map[Node]struct{}) *controllerDoc {
	p := n.Info().presented
	if p == nil {
		return nil
	}
	if _, ok := seen[p]; ok {
		return nil
	}
	seen[p] = struct{}{}
	cd := encodeNode(p, seen)
	return &cd
}
