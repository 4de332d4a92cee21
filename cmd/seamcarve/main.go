package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	seamcarving "github.com/neor164/seam-carving"
	"github.com/neor164/seam-carving/utils"
	"github.com/sirupsen/logrus"
)

const helpBanner = `
┌─┐┌─┐┌─┐┌┬┐┌─┐┌─┐┬─┐┬  ┬┌─┐
└─┐├┤ ├─┤│││├┤ ├─┤├┬┘└┐┌┘├┤
└─┘└─┘┴ ┴┴ ┴└─┘┴ ┴┴└─ └┘ └─┘

Content aware image downsizing.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source image, directory or URL")
	destination = flag.String("out", "", "Destination (defaults to <name>_seamed.png next to the source)")
	newWidth    = flag.Int("width", 0, "New width")
	newHeight   = flag.Int("height", 0, "New height")
	percentage  = flag.Bool("perc", false, "Reduce image by percentage")
	square      = flag.Bool("square", false, "Reduce image to square dimensions")
	scale       = flag.Bool("scale", false, "Proportional scaling before carving")
	kernel      = flag.String("kernel", "3", "Sobel kernel: 3, 5, 3i or 5i (interior only)")
	recompute   = flag.Bool("recompute", false, "Recompute the energy map after every seam")
	blurSigma   = flag.Float64("blur", 0, "Gaussian blur sigma applied before the energy computation")
	faceDetect  = flag.Bool("face", false, "Use face detection")
	faceAngle   = flag.Float64("angle", 0.0, "Plane rotated faces angle")
	cascade     = flag.String("cc", "", "Cascade classifier")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
	seamMap     = flag.String("seams", "", "Save the removed seams drawn over the source image")
	seamColor   = flag.String("color", seamcarving.DefaultSeamColor, "Color of the first removed seam")
	debug       = flag.Bool("debug", false, "Log every removed seam")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, helpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   utils.ColorsEnabled,
	})
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if *newWidth == 0 && *newHeight == 0 && !*percentage && !*square {
		flag.Usage()
		log.Fatal(utils.DecorateText("please provide a new WIDTH or HEIGHT", utils.ErrorMessage))
	}
	if *faceDetect && len(*cascade) == 0 {
		log.Fatal(utils.DecorateText("please specify a face classifier in case you are using the -face flag", utils.ErrorMessage))
	}

	k, err := seamcarving.ParseKernel(*kernel)
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	energy := seamcarving.StaticEnergy
	if *recompute {
		energy = seamcarving.RecomputedEnergy
	}

	proc := &seamcarving.Processor{
		NewWidth:   *newWidth,
		NewHeight:  *newHeight,
		Percentage: *percentage,
		Square:     *square,
		Scale:      *scale,
		Kernel:     k,
		Energy:     energy,
		BlurSigma:  *blurSigma,
		FaceDetect: *faceDetect,
		FaceAngle:  *faceAngle,
		Classifier: *cascade,
		SeamColor:  *seamColor,
		Logger:     log,
	}

	if *seamMap != "" {
		if fi, err := os.Stat(*source); err == nil && fi.IsDir() {
			log.Fatal(utils.DecorateText("the -seams flag can not be used with a source directory", utils.ErrorMessage))
		}
	}

	op := &seamcarving.Ops{
		Src:      *source,
		Dst:      *destination,
		PipeName: pipeName,
		Workers:  *workers,
	}
	if op.Dst == "" {
		op.Dst = defaultDestination(op.Src)
	}

	now := time.Now()
	if err := execute(proc, op, *seamMap); err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	log.Infof("execution time: %s", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
}

// execute runs the resize operation. When seamMap is set the removed seams
// are drawn into that file, which is removed again if the operation fails.
func execute(proc *seamcarving.Processor, op *seamcarving.Ops, seamMap string) error {
	if seamMap == "" {
		return proc.Execute(op)
	}

	f, err := os.Create(seamMap)
	if err != nil {
		return err
	}
	proc.SeamMap = f

	err = proc.Execute(op)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(seamMap)
	}
	return err
}

// defaultDestination derives the output path from the source:
// a pipe writes to stdout, a directory to a sibling directory
// and an image to <name>_seamed.png.
func defaultDestination(src string) string {
	if src == pipeName {
		return pipeName
	}
	if utils.IsValidUrl(src) {
		u, err := url.Parse(src)
		if err != nil {
			return "seamed.png"
		}
		stem := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
		if stem == "" || stem == "/" || stem == "." {
			return "seamed.png"
		}
		return stem + "_seamed.png"
	}

	src = filepath.Clean(src)
	if fi, err := os.Stat(src); err == nil && fi.IsDir() {
		return src + "_seamed"
	}
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(filepath.Dir(src), stem+"_seamed.png")
}
