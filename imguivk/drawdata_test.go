package imguivk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lin "github.com/xlab/linmath"
)

var imguiLayout = VertexLayout{Size: 20, PosOffset: 0, UVOffset: 8, ColOffset: 16}

func quadList(cmds ...Command) DrawList {
	return DrawList{
		VertexData: make([]byte, 4*imguiLayout.Size),
		IndexData:  make([]byte, 6*2),
		Commands:   cmds,
	}
}

func quadData(lists ...DrawList) *DrawData {
	return &DrawData{
		DisplaySize:      lin.Vec2{100, 50},
		FramebufferScale: lin.Vec2{1, 1},
		Layout:           imguiLayout,
		IndexSize:        2,
		Lists:            lists,
	}
}

func TestValidateAcceptsWellFormedData(t *testing.T) {
	d := quadData(quadList(
		Command{ElemCount: 3},
		Command{ResetRenderState: true},
		Command{ElemCount: 3, IndexOffset: 3},
	))
	assert.NoError(t, d.Validate())
	assert.Equal(t, 80, d.TotalVertexBytes())
	assert.Equal(t, 12, d.TotalIndexBytes())
	assert.False(t, d.Empty())
}

func TestValidateRejectsNegativeLayoutOffsets(t *testing.T) {
	for _, layout := range []VertexLayout{
		{Size: 20, PosOffset: -4, UVOffset: 8, ColOffset: 16},
		{Size: 20, PosOffset: 0, UVOffset: -8, ColOffset: 16},
		{Size: 20, PosOffset: 0, UVOffset: 8, ColOffset: -1},
	} {
		d := quadData(quadList(Command{ElemCount: 6}))
		d.Layout = layout
		var err error
		require.NotPanics(t, func() { err = d.Validate() }, "%+v", layout)
		if assert.Error(t, err, "%+v", layout) {
			assert.Contains(t, err.Error(), "negative vertex offset")
		}
	}
}

func TestValidateRejectsBadData(t *testing.T) {
	tests := []struct {
		name   string
		modify func(d *DrawData)
	}{
		{"zero vertex size", func(d *DrawData) { d.Layout.Size = 0 }},
		{"colour past vertex end", func(d *DrawData) { d.Layout.ColOffset = 18 }},
		{"index size", func(d *DrawData) { d.IndexSize = 3 }},
		{"ragged vertices", func(d *DrawData) { d.Lists[0].VertexData = d.Lists[0].VertexData[:79] }},
		{"ragged indices", func(d *DrawData) { d.Lists[0].IndexData = d.Lists[0].IndexData[:11] }},
		{"indices past end", func(d *DrawData) { d.Lists[0].Commands[0].IndexOffset = 4 }},
		{"vertex offset past end", func(d *DrawData) { d.Lists[0].Commands[0].VertexOffset = 4 }},
		{"negative index offset", func(d *DrawData) { d.Lists[0].Commands[0].IndexOffset = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := quadData(quadList(Command{ElemCount: 6}))
			tc.modify(d)
			assert.Error(t, d.Validate())
		})
	}
}

func TestEmpty(t *testing.T) {
	assert.True(t, quadData().Empty())
	assert.True(t, quadData(DrawList{VertexData: make([]byte, 20)}).Empty())
}
