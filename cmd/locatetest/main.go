// Command locatetest runs landmark location on a screenshot and prints the
// result, optionally saving an annotated copy.
package main

import (
	"flag"
	"fmt"
	"os"

	"jumpbot/internal/frame"
	"jumpbot/internal/jump"
	"jumpbot/internal/locate"
	"jumpbot/internal/overlay"
	"jumpbot/internal/vision"
	"jumpbot/pkg/geometry"
)

func main() {
	imagePath := flag.String("image", "", "Screenshot (PNG, JPEG, or TIFF)")
	assets := flag.String("assets", "assets", "Template directory")
	prevPath := flag.String("prev", "", "Previous screenshot, to test origin lookup")
	outPath := flag.String("out", "", "Write an annotated PNG here")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: locatetest -image <path> [-assets dir] [-prev <path>] [-out annotated.png]")
		os.Exit(1)
	}

	f, err := frame.Load(*imagePath)
	if err != nil {
		fatalf("%v", err)
	}
	defer f.Close()

	res := f.Resolution()
	fmt.Printf("Loaded %s: %s\n", *imagePath, res)

	tpl, err := vision.LoadTemplateSet(*assets, res, vision.DefaultDeltas())
	if err != nil {
		fatalf("Failed to load templates: %v", err)
	}
	defer tpl.Close()

	params := locate.DefaultParams()
	fmt.Printf("Thresholds: piece %.2f center %.2f origin %.2f\n",
		params.PieceThreshold, params.CenterThreshold, params.OriginThreshold)
	loc := locate.New(res, tpl, params)

	marks := overlay.Marks{}
	defer func() {
		if *outPath == "" {
			return
		}
		if err := overlay.SavePNG(overlay.Annotate(f.RGB, marks), *outPath); err != nil {
			fatalf("Failed to save %s: %v", *outPath, err)
		}
		fmt.Printf("Annotated image written to %s\n", *outPath)
	}()

	piece, err := loc.LocatePiece(f)
	if err != nil {
		fmt.Printf("\nPiece: %v\n", err)
		return
	}
	marks.Piece = geometry.Some(piece.Pos)
	dir := "left"
	if piece.JumpRight {
		dir = "right"
	}
	fmt.Printf("\nPiece:  %s (score %.3f), jumping %s\n", piece.Pos, piece.Score, dir)

	target, err := loc.LocateTarget(f, piece.Pos)
	if err != nil {
		fmt.Printf("Target: %v\n", err)
		return
	}
	marks.Target = geometry.Some(target.Center)
	marks.Apex = geometry.Some(target.Apex)
	fmt.Printf("Target: %s (apex %s, on-center marker %t)\n", target.Center, target.Apex, target.OnCenter)

	d := jump.ProjectDistance(piece.Pos, target.Center, piece.JumpRight)
	fmt.Printf("Distance along jump axis: %.1f px\n", d)
	marks.Lines = append(marks.Lines, fmt.Sprintf("%s %.1f px", dir, d))

	if *prevPath != "" {
		marks.Origin = lookupOrigin(loc, *prevPath, f, piece.Pos)
	}
}

// lookupOrigin crops the target from the previous screenshot and finds it in
// the current one.
func lookupOrigin(loc *locate.Locator, prevPath string, f *frame.Frame, piece geometry.Point) geometry.OptPoint {
	prev, err := frame.Load(prevPath)
	if err != nil {
		fmt.Printf("Origin: %v\n", err)
		return geometry.NotFound
	}
	defer prev.Close()

	pp, err := loc.LocatePiece(prev)
	if err != nil {
		fmt.Printf("Origin: previous frame: %v\n", err)
		return geometry.NotFound
	}
	pt, err := loc.LocateTarget(prev, pp.Pos)
	if err != nil {
		fmt.Printf("Origin: previous frame: %v\n", err)
		return geometry.NotFound
	}
	crop, ok := loc.CropTarget(prev, pt)
	if !ok {
		fmt.Println("Origin: previous target crop empty")
		return geometry.NotFound
	}
	defer crop.Close()

	origin := loc.LocateOrigin(f, &crop, piece)
	fmt.Printf("Origin: %s\n", origin)
	return origin
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
