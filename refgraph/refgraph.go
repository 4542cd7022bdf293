// Package refgraph builds a graph of the symbolic references of loaded
// classes: superclass, interfaces, declared methods and the members named
// in each constant pool.
package refgraph

import (
	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"github.com/dhamidi/classy/classfile"
)

// Build returns one node per class and declared method, plus an edge from
// each class to everything it refers to. Duplicate edges are removed.
func Build(classes ...*classfile.Clazz) *lattice.Graph {
	g := &lattice.Graph{}
	for _, c := range classes {
		g.Nodes = append(g.Nodes, c.Name)
		edge := func(callee string) {
			g.Edges = append(g.Edges, lattice.Edge{Caller: c.Name, Callee: callee})
		}

		if c.SuperclassName != "" {
			edge(c.SuperclassName)
		}
		for _, name := range c.Interfaces {
			edge(name)
		}
		for _, m := range c.Methods {
			node := MemberNode(c.Name, m.Name, m.Descriptor)
			g.Nodes = append(g.Nodes, node)
			edge(node)
		}
		for _, e := range c.Pool.All() {
			switch e := e.(type) {
			case *classfile.MethodRefEntry:
				edge(MemberNode(e.ClassName, e.Name, e.Descriptor))
			case *classfile.FieldRefEntry:
				edge(MemberNode(e.ClassName, e.Name, e.Descriptor))
			}
		}
	}
	g.Dedup()
	return g
}

func MemberNode(className, name, descriptor string) string {
	return className + "." + name + ":" + descriptor
}

func DOT(title string, classes ...*classfile.Clazz) string {
	return render.DOT(Build(classes...), title)
}
