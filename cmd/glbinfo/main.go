// glbinfo prints the buffers, bufferViews and accessors of a .glb or .gltf
// file, validating every range on the way.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/toy80/gltfio"
)

type options struct {
	inputPath string
	verbose   bool
	bounds    bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer, errOut io.Writer) error {
	opts, err := parseOptions(args, errOut)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
	provider := gltfio.FileStreamProvider{Dir: filepath.Dir(opts.inputPath)}

	var (
		reader   *gltfio.ResourceReader
		manifest string
	)
	if strings.EqualFold(filepath.Ext(opts.inputPath), ".glb") {
		f, err := os.Open(opts.inputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		glb, err := gltfio.NewGLBResourceReader(provider, f, gltfio.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("%s: %w", opts.inputPath, err)
		}
		reader, manifest = glb.ResourceReader, glb.JSON()
		if off, n, ok := glb.BinaryChunk(); ok {
			fmt.Fprintf(out, "BIN chunk: offset %d, %d bytes\n", off, n)
		}
	} else {
		j, err := os.ReadFile(opts.inputPath)
		if err != nil {
			return err
		}
		if reader, err = gltfio.NewResourceReader(provider, gltfio.WithLogger(logger)); err != nil {
			return err
		}
		manifest = string(j)
	}
	defer reader.Close()

	doc, err := gltfio.ParseManifest(manifest)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.inputPath, err)
	}
	if err = gltfio.ValidateResources(doc); err != nil {
		return fmt.Errorf("%s: %w", opts.inputPath, err)
	}
	printDocument(out, doc)

	if opts.bounds {
		for _, acc := range doc.Accessors.Elements() {
			if err = printBounds(out, reader, doc, acc); err != nil {
				return fmt.Errorf("%s: %w", opts.inputPath, err)
			}
		}
	}
	return nil
}

func parseOptions(args []string, errOut io.Writer) (options, error) {
	fs := flag.NewFlagSet("glbinfo", flag.ContinueOnError)
	fs.SetOutput(errOut)

	in := fs.String("in", "", "input .glb or .gltf file")
	verbose := fs.Bool("v", false, "debug logging")
	bounds := fs.Bool("bounds", true, "read every accessor and print its min/max")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if *in == "" && fs.NArg() > 0 {
		*in = fs.Arg(0)
	}
	if *in == "" {
		return options{}, fmt.Errorf("no input file (-in)")
	}
	switch strings.ToLower(filepath.Ext(*in)) {
	case ".glb", ".gltf":
	default:
		return options{}, fmt.Errorf("input is not .glb or .gltf: %s", *in)
	}
	return options{inputPath: *in, verbose: *verbose, bounds: *bounds}, nil
}

func printDocument(out io.Writer, doc *gltfio.Document) {
	for _, b := range doc.Buffers.Elements() {
		uri := b.URI
		switch {
		case uri == "":
			uri = "<GLB>"
		case gltfio.IsDataURI(uri):
			uri = "<data>"
		}
		fmt.Fprintf(out, "buffer %s: %d bytes %s\n", b.ID, b.ByteLength, uri)
	}
	for _, v := range doc.BufferViews.Elements() {
		fmt.Fprintf(out, "bufferView %s: buffer %s [%d, +%d) stride %d\n", v.ID, v.BufferID, v.ByteOffset, v.ByteLength, v.ByteStride)
	}
	for _, a := range doc.Accessors.Elements() {
		sparse := ""
		if a.Sparse != nil {
			sparse = fmt.Sprintf(" sparse %d", a.Sparse.Count)
		}
		fmt.Fprintf(out, "accessor %s: %s %s x%d view %q offset %d%s\n", a.ID, a.Type, a.ComponentType, a.Count, a.BufferViewID, a.ByteOffset, sparse)
	}
}

func printBounds(out io.Writer, r *gltfio.ResourceReader, doc *gltfio.Document, acc gltfio.Accessor) error {
	values, err := gltfio.ReadFloats(r, doc, acc)
	if err != nil {
		return err
	}
	lo, hi, err := gltfio.CalculateMinMax(acc, values)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "accessor %s: min %v max %v\n", acc.ID, lo, hi)
	return nil
}
