// split_scenery cuts a 2x2 artwork sheet into the dungeon scenery served at
// /scenery/{id}.png. Each quadrant is scaled (nearest neighbour) to 256x192.
// Usage: go run scripts/split_scenery.go <sheet.png> [outdir]
// Quadrants: door (top-left), orc (top-right), treasure (bottom-left),
// throne (bottom-right). outdir defaults to static/scenery.
package main

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

const outW, outH = 256, 192

var sceneNames = []string{"door", "orc", "treasure", "throne"}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: go run scripts/split_scenery.go <sheet.png> [outdir]")
	}
	inPath := filepath.Clean(args[0])
	outDir := filepath.Join("static", "scenery")
	if len(args) == 2 {
		outDir = filepath.Clean(args[1])
	}
	for _, p := range []string{inPath, outDir} {
		if strings.Contains(p, "..") {
			return fmt.Errorf("path %s must not escape current directory", p)
		}
	}

	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()
	sheet, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", inPath, err)
	}

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return err
	}
	b := sheet.Bounds()
	halfW, halfH := b.Dx()/2, b.Dy()/2
	for i, name := range sceneNames {
		x0 := b.Min.X + (i%2)*halfW
		y0 := b.Min.Y + (i/2)*halfH
		crop := image.Rect(x0, y0, x0+halfW, y0+halfH)
		out := filepath.Join(outDir, name+".png")
		if err := writeScaled(sheet, crop, out); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Println(out)
	}
	return nil
}

// writeScaled copies r from src into a outW×outH PNG, sampling the nearest
// source pixel so blocky art stays blocky.
func writeScaled(src image.Image, r image.Rectangle, path string) (err error) {
	dst := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
	for y := 0; y < outH; y++ {
		sy := r.Min.Y + y*r.Dy()/outH
		for x := 0; x < outW; x++ {
			dst.Set(x, y, src.At(r.Min.X+x*r.Dx()/outW, sy))
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()
	return png.Encode(f, dst)
}
