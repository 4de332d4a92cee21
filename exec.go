package seamcarving

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/neor164/seam-carving/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

var (
	// srcExtensions lists the image files picked up from a source directory.
	srcExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff", ".webp"}
	// dstExtensions lists the formats an image can be saved as.
	dstExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}

	// ErrSeamMapDirectory is returned when a seam map is requested for a directory source.
	ErrSeamMapDirectory = errors.New("a seam map can only be generated for a single image")
)

// Ops describes the source and destination of an Execute call.
// Src and Dst can be files, directories or PipeName for stdin and stdout.
// Src can also be an image URL.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
}

// result holds the relevant information about the resizing process and the generated image.
type result struct {
	path string
	err  error
}

// Execute executes the image resizing process over a single image or over
// every image found in the source directory.
func (p *Processor) Execute(op *Ops) error {
	var (
		src = op.Src
		fs  os.FileInfo
		err error
	)

	// Check if source path is a local image or URL.
	if utils.IsValidUrl(op.Src) {
		f, err := utils.DownloadImage(op.Src)
		if err != nil {
			return errors.Wrap(err, "failed to load the source image")
		}
		defer os.Remove(f.Name())
		if err := f.Close(); err != nil {
			return err
		}
		src = f.Name()
	}

	// Check if the source is a pipe name or a regular file.
	if src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(src)
	}
	if err != nil {
		return errors.Wrap(err, "failed to load the source image")
	}

	msg := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ SEAMCARVE", utils.StatusMessage),
		utils.DecorateText("⇢ resizing image (be patient, it may take a while)...", utils.DefaultMessage),
	)
	spinner := utils.NewSpinner(msg, 80*time.Millisecond, true)
	if spinner.Interactive() {
		spinner.Start()
		defer spinner.Stop()

		// Capture CTRL-C signal and restore back the cursor visibility.
		sig := make(chan os.Signal, 1)
		done := make(chan struct{})
		defer close(done)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)
		go func() {
			select {
			case <-sig:
				spinner.Stop()
				os.Exit(1)
			case <-done:
			}
		}()
	}

	switch mode := fs.Mode(); {
	case mode.IsDir():
		err = p.executeDir(op)
	case src == op.PipeName || mode.IsRegular() || mode&os.ModeNamedPipe != 0:
		if op.Dst != op.PipeName && !isValidExtension(filepath.Ext(op.Dst), dstExtensions) {
			err = errors.Errorf("%v file type not supported", filepath.Ext(op.Dst))
			break
		}
		err = op.process(p, src, op.Dst)
		op.printOpStatus(p.logger(), op.Dst, err)
	default:
		err = errors.Errorf("unsupported source: %s", op.Src)
	}

	if err != nil {
		spinner.StopMsg = fmt.Sprintf("%s %s %s\n",
			utils.DecorateText("⚡ SEAMCARVE", utils.StatusMessage),
			utils.DecorateText("resizing image failed...", utils.DefaultMessage),
			utils.DecorateText("✘", utils.ErrorMessage),
		)
		return err
	}
	spinner.StopMsg = fmt.Sprintf("%s %s %s\n",
		utils.DecorateText("⚡ SEAMCARVE", utils.StatusMessage),
		utils.DecorateText("⇢", utils.DefaultMessage),
		utils.DecorateText("the image has been resized successfully ✔", utils.SuccessMessage),
	)
	return nil
}

// executeDir processes recursively the image files from the source directory concurrently.
func (p *Processor) executeDir(op *Ops) error {
	// Every worker would encode into the same writer.
	if p.SeamMap != nil {
		return errors.WithStack(ErrSeamMapDirectory)
	}
	if err := os.MkdirAll(op.Dst, 0755); err != nil {
		return errors.Wrap(err, "unable to create the destination directory")
	}

	// Limit the concurrently running workers to maxWorkers.
	workers := op.Workers
	if workers <= 0 || workers > maxWorkers {
		workers = utils.Min(runtime.NumCPU(), maxWorkers)
	}

	var wg sync.WaitGroup
	ch := make(chan result)
	done := make(chan struct{})
	defer close(done)

	paths, errc := walkDir(done, op.Src, op.Dst, srcExtensions)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			op.consumer(p, ch, done, paths)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	var total, failed int
	for res := range ch {
		total++
		if res.err != nil {
			failed++
		}
		op.printOpStatus(p.logger(), res.path, res.err)
	}

	if err := <-errc; err != nil {
		return errors.Wrap(err, "walking the source directory")
	}
	if failed > 0 {
		return errors.Errorf("%d of %d images could not be resized", failed, total)
	}
	return nil
}

// consumer reads the path names from the paths channel and calls the resizing processor against the source image.
func (op *Ops) consumer(
	p *Processor,
	res chan<- result,
	done <-chan struct{},
	paths <-chan string,
) {
	for src := range paths {
		dst := filepath.Join(op.Dst, filepath.Base(src))
		if rel, err := filepath.Rel(op.Src, src); err == nil {
			dst = filepath.Join(op.Dst, rel)
		}
		// There is no webp encoder, these images are saved as png.
		if ext := filepath.Ext(dst); !isValidExtension(ext, dstExtensions) {
			dst = strings.TrimSuffix(dst, ext) + ".png"
		}

		err := os.MkdirAll(filepath.Dir(dst), 0755)
		if err == nil {
			err = op.process(p, src, dst)
		}

		select {
		case <-done:
			return
		case res <- result{
			path: dst,
			err:  err,
		}:
		}
	}
}

// process calls the resizer method over the source image and returns the error in case exists.
func (op *Ops) process(p *Processor, in, out string) error {
	src, dst, err := op.pathToFile(in, out)
	if err != nil {
		return err
	}

	defer func() {
		if f, ok := src.(*os.File); ok && f != os.Stdin {
			if err := f.Close(); err != nil {
				p.logger().Warnf("could not close the opened file: %v", err)
			}
		}
	}()

	if err = p.Process(src, dst); err != nil {
		if f, ok := dst.(*os.File); ok && f != os.Stdout {
			f.Close()
			// remove the generated image file in case of an error
			os.Remove(f.Name())
		}
		return err
	}

	if f, ok := dst.(*os.File); ok && f != os.Stdout {
		return f.Close()
	}
	return nil
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, errors.Wrap(err, "unable to open the source file")
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			closeReader(src)
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			closeReader(src)
			return nil, nil, errors.Wrap(err, "unable to create the destination file")
		}
	}
	return src, dst, nil
}

func closeReader(r io.Reader) {
	if f, ok := r.(*os.File); ok && f != os.Stdin {
		f.Close()
	}
}

// printOpStatus displays the relevant information about the image resizing process.
func (op *Ops) printOpStatus(log logrus.FieldLogger, fname string, err error) {
	if err != nil {
		log.WithError(err).WithField("file", fname).Error("error resizing the image")
		return
	}
	if fname != op.PipeName {
		log.WithField("file", fname).Info("the image has been saved")
	}
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each supported file to a new channel.
// The destination directory is skipped. It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan struct{},
	src, skip string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	skip = filepath.Clean(skip)
	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if f.IsDir() && path != src && filepath.Clean(path) == skip {
				return filepath.SkipDir
			}
			if !f.Mode().IsRegular() || !isValidExtension(filepath.Ext(f.Name()), srcExts) {
				return nil
			}

			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	ext = strings.ToLower(ext)
	for _, ex := range extensions {
		if ex == ext {
			return true
		}
	}
	return false
}
