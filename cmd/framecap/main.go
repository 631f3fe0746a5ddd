// Command framecap runs a capture scenario against the model device and
// saves the resulting frame as a PNG: reset, optional program upload over
// SPI, frame alignment, one full capture.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/db47h/sigsim"
	"github.com/db47h/sigsim/shader"
	"github.com/db47h/sigsim/spim"
	"github.com/db47h/sigsim/vcap"
	"github.com/db47h/sigsim/vdev"
)

var (
	out      = flag.String("o", "frame.png", "output image file")
	progName = flag.String("shader", "", "program file, one base-2 instruction per line")
	numInstr = flag.Int("n", 16, "expected instruction count")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	cfg := vdev.Config{
		Timing: vcap.VGA640x480,
		SPI: spim.Config{
			WordWidth:    8,
			Freq:         2e6,
			CPHA:         true,
			FrameSpacing: 500 * time.Nanosecond,
		},
		NumInstr: *numInstr,
	}

	s := sigsim.New()
	defer s.Dispose()

	dev, err := vdev.New(s, cfg)
	if err != nil {
		log.Fatal(err)
	}
	dev.Start(s)

	var prog shader.Program
	if *progName != "" {
		if prog, err = shader.LoadFile(*progName, *numInstr); err != nil {
			log.Fatal(err)
		}
	}

	capt, err := vcap.NewCapturer(vcap.Video{
		Clk: dev.Clk, HSync: dev.HSync, VSync: dev.VSync, Color: dev.Color,
	}, cfg.Timing)
	if err != nil {
		log.Fatal(err)
	}

	var img *image.RGBA
	// two frame times of slack over the upload and alignment phases
	s.SetDeadline(200 * time.Millisecond)
	err = s.Run(func(p *sigsim.Proc) error {
		s.Spawn("clock", sigsim.NewClock(dev.Clk, 20*time.Nanosecond).Run)
		dev.Ena.Set(true)
		dev.Pause.Set(len(prog) > 0)
		sigsim.HoldReset(p, dev.RstN, false, 50*time.Nanosecond)
		if len(prog) > 0 {
			m, err := spim.NewMaster(spim.Bus{
				SClk: dev.SClk, MOSI: dev.MOSI, CS: dev.CS, MISO: dev.MISO,
			}, cfg.SPI)
			if err != nil {
				return err
			}
			if err := m.Write(p, prog, true); err != nil {
				return err
			}
			dev.Pause.Set(false)
		}
		capt.WaitFrameStart(p)
		task := s.Spawn("capture", func(p *sigsim.Proc) error {
			img = capt.Capture(p)
			return nil
		})
		return task.Join(p)
	})
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatal(err)
	}
	log.Printf("%s: %dx%d frame captured at %s of virtual time",
		*out, img.Bounds().Dx(), img.Bounds().Dy(), s.Now())
}
