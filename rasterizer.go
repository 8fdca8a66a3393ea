package labelworker

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"math"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	RasterizerPoppler     = "poppler"
	RasterizerGhostscript = "ghostscript"
	RasterizerStub        = "stub"
)

// PageRasterizer renders the first page of a PDF onto a canvas at the
// requested density. Later pages are ignored, a shipping label is a
// single page by contract.
type PageRasterizer interface {
	RasterizeFirstPage(ctx context.Context, pdfBytes []byte, dpi float64) (*RasterCanvas, error)
}

func NewPageRasterizer(kind string, saveFiles bool) PageRasterizer {
	switch kind {
	case RasterizerPoppler, "":
		return &PopplerRasterizer{SaveFiles: saveFiles}
	case RasterizerGhostscript:
		return &GhostscriptRasterizer{SaveFiles: saveFiles}
	case RasterizerStub:
		return &StubRasterizer{}
	}
	return nil
}

// PopplerRasterizer shells out to pdftoppm.
type PopplerRasterizer struct {
	SaveFiles bool
}

func (p *PopplerRasterizer) RasterizeFirstPage(ctx context.Context, pdfBytes []byte, dpi float64) (*RasterCanvas, error) {
	tmpFileNameInput, err := createTempFileName("")
	if err != nil {
		return nil, err
	}
	tmpFileNameInput = fmt.Sprintf("%s.pdf", tmpFileNameInput)
	defer removeTempFile(tmpFileNameInput, p.SaveFiles)

	tmpFileNameOutput, err := createTempFileName("")
	if err != nil {
		return nil, err
	}
	// pdftoppm appends the extension itself
	defer removeTempFile(tmpFileNameOutput+".png", p.SaveFiles)

	if err := saveBytesToFileName(pdfBytes, tmpFileNameInput); err != nil {
		return nil, err
	}

	log.Info().Str("component", "RASTERIZER").Str("tmpFileNameInput", tmpFileNameInput).
		Str("tmpFileNameOutput", tmpFileNameOutput).Msg("rasterize pdf with pdftoppm")

	var popplerArgs []string
	popplerArgs = append(popplerArgs,
		"-png",
		"-singlefile",
		"-f", "1",
		"-l", "1",
		"-r", fmt.Sprintf("%d", int(math.Round(dpi))),
		tmpFileNameInput,
		tmpFileNameOutput,
	)
	log.Debug().Str("component", "RASTERIZER").Interface("popplerArgs", popplerArgs).Msg("exec pdftoppm")

	out, err := exec.CommandContext(ctx, "pdftoppm", popplerArgs...).CombinedOutput()
	if err != nil {
		log.Error().Err(err).Str("component", "RASTERIZER").Msg(string(out))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, NewLabelError(CorruptDocument, "pdf could not be rasterized")
	}

	return canvasFromRenderedFile(tmpFileNameOutput+".png", dpi)
}

// GhostscriptRasterizer shells out to gs with the png16m device.
type GhostscriptRasterizer struct {
	SaveFiles bool
}

func (g *GhostscriptRasterizer) RasterizeFirstPage(ctx context.Context, pdfBytes []byte, dpi float64) (*RasterCanvas, error) {
	tmpFileNameInput, err := createTempFileName("")
	if err != nil {
		return nil, err
	}
	tmpFileNameInput = fmt.Sprintf("%s.pdf", tmpFileNameInput)
	defer removeTempFile(tmpFileNameInput, g.SaveFiles)

	tmpFileNameOutput, err := createTempFileName("")
	if err != nil {
		return nil, err
	}
	tmpFileNameOutput = fmt.Sprintf("%s.png", tmpFileNameOutput)
	defer removeTempFile(tmpFileNameOutput, g.SaveFiles)

	if err := saveBytesToFileName(pdfBytes, tmpFileNameInput); err != nil {
		return nil, err
	}

	log.Info().Str("component", "RASTERIZER").Str("tmpFileNameInput", tmpFileNameInput).
		Str("tmpFileNameOutput", tmpFileNameOutput).Msg("rasterize pdf with gs")

	var gsArgs []string
	gsArgs = append(gsArgs,
		"-dQUIET",
		"-dNOPAUSE",
		"-dBATCH",
		"-dSAFER",
		"-dFirstPage=1",
		"-dLastPage=1",
		fmt.Sprintf("-r%d", int(math.Round(dpi))),
		"-sOutputFile="+tmpFileNameOutput,
		"-sDEVICE=png16m",
		tmpFileNameInput,
	)
	log.Debug().Str("component", "RASTERIZER").Interface("gsArgs", gsArgs).Msg("exec gs")

	out, err := exec.CommandContext(ctx, "gs", gsArgs...).CombinedOutput()
	if err != nil {
		log.Error().Err(err).Str("component", "RASTERIZER").Msg(string(out))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, NewLabelError(CorruptDocument, "pdf could not be rasterized")
	}

	return canvasFromRenderedFile(tmpFileNameOutput, dpi)
}

func canvasFromRenderedFile(fileName string, dpi float64) (*RasterCanvas, error) {
	renderedBytes, err := os.ReadFile(fileName)
	if err != nil {
		return nil, NewLabelError(CorruptDocument, "pdf rasterizer produced no output")
	}
	img, err := png.Decode(bytes.NewReader(renderedBytes))
	if err != nil {
		return nil, NewLabelError(CorruptDocument, "pdf rasterizer produced an unreadable page")
	}
	return canvasFromImage(img, dpi), nil
}

// StubRasterizer renders a deterministic synthetic label and needs no
// external binaries. Width and Height override the default page, Delay
// simulates a slow render while honoring cancellation.
type StubRasterizer struct {
	Width  int
	Height int
	Delay  time.Duration
}

func (s *StubRasterizer) RasterizeFirstPage(ctx context.Context, pdfBytes []byte, dpi float64) (*RasterCanvas, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	w, h := s.Width, s.Height
	if w <= 0 || h <= 0 {
		w = int(math.Round(2.5 * dpi))
		h = int(math.Round(4 * dpi))
	}

	canvas := &RasterCanvas{Width: w, Height: h, DPI: dpi, Mode: ModeGrayscale, Pix: make([]uint8, w*h)}
	canvas.Fill(0xFF)
	// dark block inset by a tenth on every side so the cropper has
	// something to find
	insetX, insetY := w/10, h/10
	for y := insetY; y < h-insetY; y++ {
		for x := insetX; x < w-insetX; x++ {
			canvas.Pix[y*w+x] = 0x20
		}
	}
	return canvas, nil
}
