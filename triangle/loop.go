package triangle

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/xlab/closer"
)

// Run drives a until a quit event arrives or closer fires, then tears it
// down on the calling thread. frameDelay of 0 runs unpaced.
func Run(a *App, frameDelay time.Duration) {
	doneC := make(chan struct{}, 2)
	exitC := make(chan struct{}, 2)
	requestExit := func() {
		select {
		case exitC <- struct{}{}:
		default:
		}
	}
	closer.Bind(func() {
		requestExit()
		<-doneC
		log.Infoln("Bye!")
	})

	var tickC <-chan time.Time
	if frameDelay > 0 {
		ticker := time.NewTicker(frameDelay)
		defer ticker.Stop()
		tickC = ticker.C
	} else {
		always := make(chan time.Time)
		close(always)
		tickC = always
	}

	w, h := a.SwapchainSize()
	log.WithFields(log.Fields{
		"width":  w,
		"height": h,
		"delay":  frameDelay,
	}).Infoln("triangle: entering main loop")

	start := time.Now()
	frames := 0
_MainLoop:
	for {
		select {
		case <-exitC:
			log.Infof("FPS: %.2f", float64(frames)/time.Since(start).Seconds())
			a.Destroy()
			doneC <- struct{}{}
			return
		case <-tickC:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				if a.HandleEvent(event) {
					requestExit()
					continue _MainLoop
				}
			}
			orPanic(a.Frame())
			frames++
		}
	}
}

func orPanic(err error) {
	if err != nil {
		panic(err)
	}
}
