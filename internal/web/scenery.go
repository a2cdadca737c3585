package web

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
)

// Scenery IDs that may be requested. Encounter files map stages onto these.
var validSceneryIDs = map[string]bool{
	"default": true, "door": true, "orc": true, "treasure": true, "throne": true,
}

const contentTypePNG = "image/png"

// handleScenery serves {static}/scenery/{id}.png if present, otherwise a
// generated pixel-art picture of the dungeon room.
func (s *Server) handleScenery(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !validSceneryIDs[id] {
		http.NotFound(w, r)
		return
	}

	baseDir := filepath.Join(s.staticDir(), "scenery")
	staticPath := filepath.Clean(filepath.Join(baseDir, id+".png"))
	rel, err := filepath.Rel(baseDir, staticPath)
	if err != nil || strings.Contains(rel, "..") {
		http.NotFound(w, r)
		return
	}
	if b, err := os.ReadFile(staticPath); err == nil { // #nosec G304 -- id is allowlisted
		w.Header().Set("Content-Type", contentTypePNG)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(b)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, generateSceneryImage(id)); err != nil {
		s.serverError(w, r, "encode scenery", err)
		return
	}
	w.Header().Set("Content-Type", contentTypePNG)
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(buf.Bytes())
}

// Torch-lit dungeon palette, 256×192 in 8×8 blocks.
var (
	pixelBlack = color.RGBA{0x14, 0x10, 0x18, 255}
	pixelStone = color.RGBA{0x4a, 0x48, 0x55, 255}
	pixelMoss  = color.RGBA{0x3a, 0x4a, 0x32, 255}
	pixelWood  = color.RGBA{0x6b, 0x43, 0x22, 255}
	pixelIron  = color.RGBA{0x2a, 0x2a, 0x30, 255}
	pixelFlame = color.RGBA{0xf0, 0x9a, 0x2a, 255}
	pixelOrc   = color.RGBA{0x4f, 0x7a, 0x35, 255}
	pixelRed   = color.RGBA{0x8e, 0x1e, 0x1e, 255}
	pixelGold  = color.RGBA{0xe8, 0xc0, 0x3a, 255}
	pixelHex   = color.RGBA{0xc4, 0x9a, 0x5a, 255}
)

const blockPx = 8
const sceneW, sceneH = 256, 192
const blocksW, blocksH = sceneW / blockPx, sceneH / blockPx

func fillBlock(img *image.RGBA, bx, by int, clr color.RGBA) {
	if bx < 0 || by < 0 || bx >= blocksW || by >= blocksH {
		return
	}
	for dy := 0; dy < blockPx; dy++ {
		for dx := 0; dx < blockPx; dx++ {
			img.SetRGBA(bx*blockPx+dx, by*blockPx+dy, clr)
		}
	}
}

// fillRect fills blocks [x0, x1) × [y0, y1).
func fillRect(img *image.RGBA, x0, y0, x1, y1 int, clr color.RGBA) {
	for by := y0; by < y1; by++ {
		for bx := x0; bx < x1; bx++ {
			fillBlock(img, bx, by, clr)
		}
	}
}

// stoneRoom paints brick walls over a dark floor, the backdrop of every scene.
func stoneRoom(img *image.RGBA) {
	fillRect(img, 0, 0, blocksW, blocksH, pixelBlack)
	for by := 0; by < blocksH-5; by++ {
		for bx := 0; bx < blocksW; bx++ {
			if (bx+by%2)%3 != 0 {
				fillBlock(img, bx, by, pixelStone)
			}
		}
	}
	fillRect(img, 0, blocksH-5, blocksW, blocksH-4, pixelMoss)
}

func torch(img *image.RGBA, bx, by int) {
	fillRect(img, bx, by, bx+1, by+3, pixelWood)
	fillBlock(img, bx, by-1, pixelFlame)
}

func generateSceneryImage(id string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, sceneW, sceneH))
	stoneRoom(img)

	switch id {
	case "door":
		// Reinforced oak door with iron bands between two torches.
		fillRect(img, 11, 4, 21, blocksH-5, pixelWood)
		for _, by := range []int{7, 12, 16} {
			fillRect(img, 11, by, 21, by+1, pixelIron)
		}
		fillBlock(img, 19, 11, pixelGold)
		torch(img, 7, 8)
		torch(img, 24, 8)
	case "orc":
		// The orc hunched over a hexagonal board.
		fillRect(img, 13, 3, 19, 8, pixelOrc)
		fillBlock(img, 14, 5, pixelRed)
		fillBlock(img, 17, 5, pixelRed)
		fillRect(img, 14, 7, 15, 8, pixelFlame)
		fillRect(img, 17, 7, 18, 8, pixelFlame)
		fillRect(img, 10, 8, 22, 15, pixelOrc)
		fillRect(img, 7, 10, 10, 13, pixelOrc)
		fillRect(img, 22, 10, 25, 13, pixelOrc)
		// table and board
		fillRect(img, 6, 15, 26, 17, pixelWood)
		fillRect(img, 11, 14, 21, 15, pixelHex)
		fillBlock(img, 13, 13, pixelHex)
		fillBlock(img, 18, 13, pixelHex)
		fillRect(img, 8, 17, 9, blocksH-4, pixelWood)
		fillRect(img, 23, 17, 24, blocksH-4, pixelWood)
		torch(img, 3, 6)
		torch(img, 28, 6)
	case "treasure":
		// Open chest over a pile of coins.
		for i := 0; i < 8; i++ {
			fillRect(img, 8+i, blocksH-6-i/2, 24-i, blocksH-5-i/2, pixelGold)
		}
		fillRect(img, 12, 9, 20, 13, pixelWood)
		fillRect(img, 12, 8, 20, 9, pixelIron)
		fillRect(img, 13, 10, 19, 12, pixelGold)
		fillBlock(img, 16, 7, pixelRed)
		torch(img, 5, 8)
		torch(img, 26, 8)
	case "throne":
		// Throne at the end of a red carpet.
		fillRect(img, 14, blocksH-9, 18, blocksH, pixelRed)
		fillRect(img, 12, 3, 20, 6, pixelGold)
		fillRect(img, 13, 6, 19, 13, pixelWood)
		fillRect(img, 11, 11, 21, 14, pixelWood)
		fillRect(img, 14, 7, 18, 11, pixelRed)
		for _, bx := range []int{12, 16, 19} {
			fillBlock(img, bx, 2, pixelGold)
		}
		torch(img, 6, 7)
		torch(img, 25, 7)
	default:
		torch(img, 10, 9)
		torch(img, 21, 9)
	}
	return img
}
