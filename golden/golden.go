// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package golden compares captured frames against reference images.
//
package golden

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// Result is the outcome of a comparison. When the images differ, Bounds is
// the bounding box of the differing pixels in the compared coordinate
// space; a full difference map is deliberately not kept.
//
type Result struct {
	Equal  bool
	Bounds image.Rectangle
}

// Scale returns ref scaled up by an integer factor using nearest-neighbour
// sampling. Hard edges are preserved: every reference pixel becomes a
// factor x factor block.
//
func Scale(ref image.Image, factor int) (*image.RGBA, error) {
	if factor < 1 {
		return nil, errors.Errorf("invalid scale factor %d", factor)
	}
	b := ref.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), ref, b, draw.Src, nil)
	return dst, nil
}

// Compare performs an exact per-pixel, per-channel difference of the RGB
// planes of got and want, which must have equal dimensions. Alpha is
// ignored: frames are opaque by construction and references may decode to
// any alpha-carrying colour model.
//
func Compare(got, want image.Image) (Result, error) {
	gb, wb := got.Bounds(), want.Bounds()
	if gb.Dx() != wb.Dx() || gb.Dy() != wb.Dy() {
		return Result{}, errors.Errorf("size mismatch: got %dx%d, want %dx%d",
			gb.Dx(), gb.Dy(), wb.Dx(), wb.Dy())
	}
	var bb image.Rectangle
	for y := 0; y < gb.Dy(); y++ {
		for x := 0; x < gb.Dx(); x++ {
			g := color.RGBAModel.Convert(got.At(gb.Min.X+x, gb.Min.Y+y)).(color.RGBA)
			w := color.RGBAModel.Convert(want.At(wb.Min.X+x, wb.Min.Y+y)).(color.RGBA)
			if g.R != w.R || g.G != w.G || g.B != w.B {
				bb = bb.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	if bb.Empty() {
		return Result{Equal: true}, nil
	}
	return Result{Bounds: bb}, nil
}

// CompareScaled scales ref by factor and compares the result against got.
//
func CompareScaled(got, ref image.Image, factor int) (Result, error) {
	want, err := Scale(ref, factor)
	if err != nil {
		return Result{}, err
	}
	return Compare(got, want)
}
