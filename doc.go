/*
Package seamcarving is a content aware image downsizing library. It removes the
connected paths of least important pixels (seams) one by one, either
vertically or horizontally, until the image reaches the requested size.

The importance of a pixel is measured by a Sobel gradient over the image
luminance. The energy map can be computed once for the source image or
recomputed after every removed seam. Faces found by a pigo cascade classifier
can be protected from being carved.

The package provides a command line interface, supporting various flags for
different types of resize operations. To check the supported commands type:

	$ seamcarve --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"

		seamcarving "github.com/neor164/seam-carving"
	)

	func main() {
		p := &seamcarving.Processor{
			NewWidth:  640,
			NewHeight: 480,
		}

		if err := p.Process(in, out); err != nil {
			fmt.Printf("Error resizing image: %s", err.Error())
		}
	}

The lower level Carver works on decoded pixel buffers:

	c, err := seamcarving.NewCarver(img, 640, 480, &seamcarving.Options{
		Energy: seamcarving.RecomputedEnergy,
	})
	if err != nil {
		return err
	}
	res, err := c.Run()
*/
package seamcarving
