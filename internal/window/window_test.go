package window

import (
	"context"
	"testing"
)

func TestButtonRectIsCentred(t *testing.T) {
	r := buttonRect(1280, 720)
	if r.Dx() != buttonW || r.Dy() != buttonH {
		t.Fatalf("button size = %dx%d", r.Dx(), r.Dy())
	}
	if r.Min.X != 480 || r.Min.Y != 328 {
		t.Fatalf("button origin = %v, want (480,328)", r.Min)
	}
	if !pointInRect(640, 360, r) || pointInRect(10, 10, r) {
		t.Fatal("pointInRect disagrees with the button bounds")
	}
}

func TestCanvasTopAnchorsToBottom(t *testing.T) {
	if got := canvasTop(720, 180); got != 540 {
		t.Fatalf("canvasTop(720, 180) = %d, want 540", got)
	}
	if got := canvasTop(100, 400); got != 0 {
		t.Fatalf("canvasTop(100, 400) = %d, want 0", got)
	}
}

func TestShouldQuitOnEscapeOrCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if shouldQuit(ctx, false) {
		t.Fatal("shouldQuit() = true with no escape and a live context")
	}
	if !shouldQuit(ctx, true) {
		t.Fatal("shouldQuit() = false after escape")
	}
	cancel()
	if !shouldQuit(ctx, false) {
		t.Fatal("shouldQuit() = false after the context was cancelled")
	}
}
