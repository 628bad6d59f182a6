package imguivk

import (
	"fmt"

	lin "github.com/xlab/linmath"
)

// VertexLayout describes one GUI vertex: two float32 position components,
// two float32 uv components and four colour bytes.
type VertexLayout struct {
	Size      int
	PosOffset int
	UVOffset  int
	ColOffset int
}

// Command is one draw call of a DrawList. IndexOffset and VertexOffset are
// relative to the owning list.
type Command struct {
	ElemCount    int
	IndexOffset  int
	VertexOffset int
	// ClipRect is x1, y1, x2, y2 in display coordinates.
	ClipRect  lin.Vec4
	TextureID uintptr
	// ResetRenderState marks a callback slot. The renderer re-applies its
	// pipeline state and draws nothing for it.
	ResetRenderState bool
}

type DrawList struct {
	VertexData []byte
	IndexData  []byte
	Commands   []Command
}

// DrawData is one frame of GUI geometry in the form the renderer uploads.
type DrawData struct {
	DisplayPos       lin.Vec2
	DisplaySize      lin.Vec2
	FramebufferScale lin.Vec2

	Layout    VertexLayout
	IndexSize int
	Lists     []DrawList
}

func (d *DrawData) TotalVertexBytes() int {
	n := 0
	for i := range d.Lists {
		n += len(d.Lists[i].VertexData)
	}
	return n
}

func (d *DrawData) TotalIndexBytes() int {
	n := 0
	for i := range d.Lists {
		n += len(d.Lists[i].IndexData)
	}
	return n
}

// Empty reports whether there is nothing to draw.
func (d *DrawData) Empty() bool {
	return d.TotalVertexBytes() == 0 || d.TotalIndexBytes() == 0
}

// Validate checks the layout and that every command stays inside its
// list's buffers.
func (d *DrawData) Validate() error {
	l := d.Layout
	if l.Size <= 0 {
		return fmt.Errorf("imguivk: vertex size %d", l.Size)
	}
	if l.PosOffset < 0 || l.UVOffset < 0 || l.ColOffset < 0 {
		return fmt.Errorf("imguivk: negative vertex offset in layout %+v", l)
	}
	if l.PosOffset+8 > l.Size || l.UVOffset+8 > l.Size || l.ColOffset+4 > l.Size {
		return fmt.Errorf("imguivk: layout %+v does not fit a %d byte vertex", l, l.Size)
	}
	if d.IndexSize != 2 && d.IndexSize != 4 {
		return fmt.Errorf("imguivk: unsupported index size %d", d.IndexSize)
	}
	for i, list := range d.Lists {
		if len(list.VertexData)%l.Size != 0 {
			return fmt.Errorf("imguivk: list %d: %d vertex bytes is not a multiple of %d",
				i, len(list.VertexData), l.Size)
		}
		if len(list.IndexData)%d.IndexSize != 0 {
			return fmt.Errorf("imguivk: list %d: %d index bytes is not a multiple of %d",
				i, len(list.IndexData), d.IndexSize)
		}
		vertices := len(list.VertexData) / l.Size
		indices := len(list.IndexData) / d.IndexSize
		for j, cmd := range list.Commands {
			if cmd.ResetRenderState {
				continue
			}
			if cmd.ElemCount < 0 || cmd.IndexOffset < 0 || cmd.VertexOffset < 0 {
				return fmt.Errorf("imguivk: list %d command %d: negative count or offset", i, j)
			}
			if cmd.IndexOffset+cmd.ElemCount > indices {
				return fmt.Errorf("imguivk: list %d command %d: indices [%d, %d) past %d",
					i, j, cmd.IndexOffset, cmd.IndexOffset+cmd.ElemCount, indices)
			}
			if cmd.ElemCount > 0 && cmd.VertexOffset >= vertices {
				return fmt.Errorf("imguivk: list %d command %d: vertex offset %d past %d",
					i, j, cmd.VertexOffset, vertices)
			}
		}
	}
	return nil
}
