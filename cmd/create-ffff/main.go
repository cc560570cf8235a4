// create-ffff builds an FFFF romimage from element payload files.
//
// Usage:
//
//	create-ffff --out image.ffff --name "boot image" \
//	    --flash-capacity 0x100000 --erase-size 0x1000 \
//	    --header-size 0x1000 --image-length 0x100000 \
//	    --element type=s2f,file=boot.bin,id=1,location=0x2000,generation=1 \
//	    --element type=data,file=blob.bin,id=2,location=0x10000
//
// Element attributes: type (s2f, s3f, ims, cms, data), file, class,
// id, length, location, generation. Numbers accept 0x prefixes.
// Files ending in .hex are parsed as Intel HEX and flattened.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rddl-network/go-utils/logger"
	"github.com/spf13/cobra"

	"github.com/bootrom-tools/go-ffff/ffff"
)

type flags struct {
	out        string
	name       string
	capacity   string
	eraseSize  string
	headerSize string
	length     string
	generation string
	elements   []string
	verbose    bool
}

func main() {
	var f flags

	cmd := &cobra.Command{
		Use:          "create-ffff",
		Short:        "Build an FFFF flash romimage from element payloads",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(&f)
		},
	}

	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output image path (required)")
	cmd.Flags().StringVar(&f.name, "name", "", "flash image name")
	cmd.Flags().StringVar(&f.capacity, "flash-capacity", "", "flash part size in bytes (required)")
	cmd.Flags().StringVar(&f.eraseSize, "erase-size", "", "erase block size in bytes (required)")
	cmd.Flags().StringVar(&f.headerSize, "header-size", "0x1000", "FFFF header size in bytes")
	cmd.Flags().StringVar(&f.length, "image-length", "", "image length in bytes (required)")
	cmd.Flags().StringVar(&f.generation, "generation", "0", "header generation counter")
	cmd.Flags().StringArrayVar(&f.elements, "element", nil,
		"element spec: type=data,file=payload.bin,id=1,location=0x2000[,...] (repeatable)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log build steps")

	for _, name := range []string{"out", "flash-capacity", "erase-size", "image-length"} {
		_ = cmd.MarkFlagRequired(name)
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(f *flags) error {
	level := logger.INFO
	if f.verbose {
		level = logger.DEBUG
	}
	log := logger.GetLogger(level)

	spec := ffff.ImageSpec{Name: f.name}
	var err error
	if spec.FlashCapacity, err = parseU32(f.capacity); err != nil {
		return fmt.Errorf("--flash-capacity: %w", err)
	}
	if spec.EraseBlockSize, err = parseU32(f.eraseSize); err != nil {
		return fmt.Errorf("--erase-size: %w", err)
	}
	if spec.HeaderSize, err = parseU32(f.headerSize); err != nil {
		return fmt.Errorf("--header-size: %w", err)
	}
	if spec.ImageLength, err = parseU32(f.length); err != nil {
		return fmt.Errorf("--image-length: %w", err)
	}
	if spec.Generation, err = parseU32(f.generation); err != nil {
		return fmt.Errorf("--generation: %w", err)
	}

	cache := ffff.NewElementCache()
	for _, espec := range f.elements {
		if err := addElement(cache, espec); err != nil {
			return fmt.Errorf("--element %q: %w", espec, err)
		}
	}
	cache.Close()

	var opts []ffff.Option
	if f.verbose {
		opts = append(opts, ffff.WithLogger(&appLogger{log}))
	}

	image, err := ffff.NewBuilder(opts...).Build(cache, spec)
	if err != nil {
		return err
	}
	defer image.Free()

	if err := image.WriteFile(f.out); err != nil {
		return err
	}
	log.Info("wrote " + f.out)
	return nil
}

// addElement applies one comma-separated element spec to the cache,
// preserving the open/set semantics of the element declaration window.
func addElement(cache *ffff.ElementCache, spec string) error {
	attrs := strings.Split(spec, ",")

	var typ ffff.ElementType
	var file string
	rest := make([][2]string, 0, len(attrs))
	for _, attr := range attrs {
		key, value, ok := strings.Cut(attr, "=")
		if !ok {
			return fmt.Errorf("attribute %q is not key=value", attr)
		}
		switch key {
		case "type":
			t, err := parseType(value)
			if err != nil {
				return err
			}
			typ = t
		case "file":
			file = value
		default:
			rest = append(rest, [2]string{key, value})
		}
	}
	if typ == 0 {
		return fmt.Errorf("missing type attribute")
	}

	if err := cache.Open(typ, file); err != nil {
		return err
	}
	for _, kv := range rest {
		v, err := parseU32(kv[1])
		if err != nil {
			return fmt.Errorf("%s: %w", kv[0], err)
		}
		switch kv[0] {
		case "class":
			err = cache.SetClass(byte(v))
		case "id":
			err = cache.SetID(v)
		case "length":
			err = cache.SetLength(v)
		case "location":
			err = cache.SetLocation(v)
		case "generation":
			err = cache.SetGeneration(v)
		default:
			return fmt.Errorf("unknown attribute %q", kv[0])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func parseType(s string) (ffff.ElementType, error) {
	switch s {
	case "s2f", "stage2":
		return ffff.ElementStage2FW, nil
	case "s3f", "stage3":
		return ffff.ElementStage3FW, nil
	case "ims":
		return ffff.ElementIMSCert, nil
	case "cms":
		return ffff.ElementCMSCert, nil
	case "data":
		return ffff.ElementData, nil
	}
	return 0, fmt.Errorf("unknown element type %q", s)
}

func parseU32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return uint32(v), nil
}

// appLogger adapts the service logger to the builder's Logger
// interface.
type appLogger struct {
	log logger.AppLogger
}

func (l *appLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg + format(keysAndValues))
}

func (l *appLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg + format(keysAndValues))
}

func (l *appLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error(msg + format(keysAndValues))
}

func format(kv []interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", kv[i], kv[i+1])
	}
	return sb.String()
}
