/*
Package grayscale converts RGB images to grayscale, either in a single sequential
pass or by splitting the image rows into contiguous bands processed concurrently.

Every pixel is mapped to the luminance floor(0.3*R + 0.59*G + 0.11*B), which is
written into its red, green and blue channels. An alpha channel, if present, is kept.

The two transformers differ in how they treat their input:

	dst, err := grayscale.Sequential(src) // src is left untouched
	err := grayscale.Parallel(buf, 0)     // buf is overwritten, one band per CPU

The package also ships the loading and saving helpers used by the grayseq and
graypar command line tools:

	op := &grayscale.Ops{Src: "input.jpg", Dst: "output.jpg"}
	report, err := op.RunParallel()
	if err != nil {
		fmt.Printf("Error converting image: %s", err.Error())
	}
*/
package grayscale
