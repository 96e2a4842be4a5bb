// Package customvision - Tiny YOLOv2 style object detectors exported from
// Azure Custom Vision as a zip archive holding model.onnx and labels.txt.
package customvision

import (
	"archive/zip"
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-tinyyolo/models/model"
	"github.com/nvr-ai/go-tinyyolo/models/tinyyolov2"
)

const (
	// ModelFileName is the name of the network inside the archive.
	ModelFileName = "model.onnx"
	// LabelsFileName is the name of the label list inside the archive.
	LabelsFileName = "labels.txt"
	// InputName is the name of the input tensor of exported models.
	InputName = "data"
	// OutputName is the name of the output tensor of exported models.
	OutputName = "model_outputs0"
)

var (
	// ErrArchiveMissingModel is returned when the archive has no model.onnx.
	ErrArchiveMissingModel = errors.New("the exported archive is missing the model.onnx file")
	// ErrArchiveMissingLabels is returned when the archive has no labels.txt.
	ErrArchiveMissingLabels = errors.New("the exported archive is missing the labels.txt file")
)

// Anchors returns the anchor priors of Custom Vision object detectors.
func Anchors() []tinyyolov2.Anchor {
	return []tinyyolov2.Anchor{
		{Width: 0.573, Height: 0.677},
		{Width: 1.87, Height: 2.06},
		{Width: 3.34, Height: 5.47},
		{Width: 7.88, Height: 3.53},
		{Width: 9.77, Height: 9.17},
	}
}

// Params returns the decoder parameters for an export with the given labels.
func Params(labels []string) tinyyolov2.Params {
	return tinyyolov2.Params{
		GridRows:   tinyyolov2.GridSize,
		GridCols:   tinyyolov2.GridSize,
		CellWidth:  tinyyolov2.CellSize,
		CellHeight: tinyyolov2.CellSize,
		Anchors:    Anchors(),
		Labels:     labels,
	}
}

// Archive is an extracted Custom Vision export.
type Archive struct {
	// ModelPath is the extracted model.onnx.
	ModelPath string
	// LabelsPath is the extracted labels.txt.
	LabelsPath string
	// Labels are the class names, in output order.
	Labels []string
}

// OpenArchive extracts model.onnx and labels.txt from a Custom Vision zip
// export into extractDir and reads the labels. Extraction is skipped when
// both files already exist. An empty extractDir means the archive path
// without its .zip extension.
//
// Arguments:
//   - zipPath: The exported archive.
//   - extractDir: Where the files are written.
//
// Returns:
//   - *Archive: The extracted file paths and labels.
//   - error: ErrArchiveMissingModel, ErrArchiveMissingLabels or an I/O error.
func OpenArchive(zipPath, extractDir string) (*Archive, error) {
	if extractDir == "" {
		extractDir = strings.TrimSuffix(zipPath, filepath.Ext(zipPath))
	}
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", extractDir)
	}

	a := &Archive{
		ModelPath:  filepath.Join(extractDir, ModelFileName),
		LabelsPath: filepath.Join(extractDir, LabelsFileName),
	}

	if !exists(a.ModelPath) || !exists(a.LabelsPath) {
		if err := extract(zipPath, a); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(a.LabelsPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open labels")
	}
	defer f.Close()

	if a.Labels, err = ReadLabels(f); err != nil {
		return nil, err
	}
	return a, nil
}

func extract(zipPath string, a *Archive) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return errors.Wrapf(err, "failed to open archive %s", zipPath)
	}
	defer r.Close()

	entries := []struct {
		name    string
		dst     string
		missing error
	}{
		{ModelFileName, a.ModelPath, ErrArchiveMissingModel},
		{LabelsFileName, a.LabelsPath, ErrArchiveMissingLabels},
	}
	for _, e := range entries {
		file := find(r.File, e.name)
		if file == nil {
			return errors.Wrap(e.missing, zipPath)
		}
		if err := extractFile(file, e.dst); err != nil {
			return err
		}
	}
	return nil
}

// find returns the first entry whose base name matches, ignoring case and
// directories inside the archive.
func find(files []*zip.File, name string) *zip.File {
	for _, f := range files {
		if strings.EqualFold(filepath.Base(f.Name), name) {
			return f
		}
	}
	return nil
}

func extractFile(file *zip.File, dst string) error {
	src, err := file.Open()
	if err != nil {
		return errors.Wrapf(err, "failed to open %s in archive", file.Name)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dst)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to extract %s", file.Name)
	}
	return out.Close()
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ReadLabels reads one label per line, trimming surrounding whitespace and
// skipping blank lines.
func ReadLabels(r io.Reader) ([]string, error) {
	var labels []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if label := strings.TrimSpace(scanner.Text()); label != "" {
			labels = append(labels, label)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read labels")
	}
	return labels, nil
}

// ReadLabelsFile reads a newline separated label file.
func ReadLabelsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open labels %s", path)
	}
	defer f.Close()
	return ReadLabels(f)
}

// NewModel creates a Custom Vision detector. Path may be the exported zip
// archive or an already extracted model.onnx; in the latter case the labels
// come from args.Labels or args.LabelsPath.
//
// Arguments:
//   - args: The arguments for creating a new model.
//
// Returns:
//   - *tinyyolov2.Model: The model.
//   - error: An error if the archive or labels cannot be read.
func NewModel(args model.NewModelArgs) (*tinyyolov2.Model, error) {
	if args.Path == "" {
		return nil, errors.New("NewModel requires path to be set")
	}

	modelPath := args.Path
	labels := args.Labels

	if strings.EqualFold(filepath.Ext(args.Path), ".zip") {
		a, err := OpenArchive(args.Path, "")
		if err != nil {
			return nil, err
		}
		modelPath = a.ModelPath
		if len(labels) == 0 {
			labels = a.Labels
		}
	}

	if len(labels) == 0 && args.LabelsPath != "" {
		var err error
		if labels, err = ReadLabelsFile(args.LabelsPath); err != nil {
			return nil, err
		}
	}
	if len(labels) == 0 {
		return nil, errors.New("NewModel requires labels, a labels path or a zip archive")
	}

	return tinyyolov2.NewGridModel(model.Options{
		Name:    model.ModelNameCustomVision,
		Family:  model.ModelFamilyCustomVision,
		Path:    modelPath,
		Inputs:  []string{InputName},
		Outputs: []string{OutputName},
	}, Params(labels))
}
