// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// leveler is a digital spirit level daemon: it reads the pitch from an
// ADXL345 accelerometer and prints it on an SSD1306 OLED.
//
// With -simulate no hardware is needed, the display is emulated in the
// terminal and the angle swings back and forth.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/gilleshenrard/STM32-leveler/adxl345"
	"github.com/gilleshenrard/STM32-leveler/errorstack"
	"github.com/gilleshenrard/STM32-leveler/pageview"
	"github.com/gilleshenrard/STM32-leveler/ssd1306"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	simulate := flag.Bool("simulate", false, "emulate the display in the terminal instead of driving hardware")
	once := flag.Bool("once", false, "print a single reading and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log := logrus.New()
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	if err := run(log, cfg, *simulate, *once); err != nil {
		log.Fatal(err)
	}
}

func run(log *logrus.Logger, cfg Config, simulate, once bool) error {
	var (
		dev   *ssd1306.Dev
		accel *adxl345.Dev
		emu   *pageview.Emulator
	)

	if simulate {
		emu = pageview.New(nil)
		dev = ssd1306.New(emu, emu.DC(), emu.CS(), emu.RST())
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}

		display, err := spireg.Open(cfg.SPI.DisplayPort)
		if err != nil {
			return err
		}
		defer display.Close()
		sensor, err := spireg.Open(cfg.SPI.SensorPort)
		if err != nil {
			return err
		}
		defer sensor.Close()

		dc, err := pinByName(cfg.Pins.DC)
		if err != nil {
			return err
		}
		cs, err := pinByName(cfg.Pins.CS)
		if err != nil {
			return err
		}
		rst, err := pinByName(cfg.Pins.RST)
		if err != nil {
			return err
		}

		dev, err = ssd1306.NewSPI(display, dc, cs, rst)
		if err != nil {
			return err
		}
		accel, err = adxl345.New(sensor, nil)
		if err != nil {
			return err
		}
		if code := accel.Init(); code.IsError() {
			return fmt.Errorf("initialising %s: %w", accel, code)
		}
		defer accel.Halt()
	}

	if code := dev.Init(); code.IsError() {
		return fmt.Errorf("initialising %s: %w", dev, code)
	}
	defer dev.Halt()
	log.WithField("display", dev.String()).Debug("display initialised")

	// The transfer countdown runs off its own millisecond tick, like the
	// systick of the microcontroller build.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				dev.Tick()
			case <-stop:
				return
			}
		}
	}()
	defer wg.Wait()
	defer close(stop)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	angle := angleSource(simulate, accel, log)
	period := time.Duration(cfg.Display.PeriodMs) * time.Millisecond
	poll := time.NewTicker(time.Millisecond)
	defer poll.Stop()

	var lastPrint time.Time
	printing := false
	for {
		select {
		case <-sig:
			log.Info("shutting down")
			return nil
		case <-poll.C:
			if code := dev.Update(); code.IsError() {
				logCode(log, code, "display update failed")
				printing = false
				continue
			}
			if !dev.Ready() {
				continue
			}
			if printing {
				// A print just landed.
				printing = false
				if simulate {
					if err := emu.Render(); err != nil {
						return err
					}
				}
				if once {
					return nil
				}
			}
			if time.Since(lastPrint) < period {
				continue
			}
			a, ok := angle()
			if !ok {
				continue
			}
			log.WithField("angle", a).Debug("printing")
			if code := dev.PrintAngle(a, cfg.Display.Page, cfg.Display.Column); code.IsError() {
				logCode(log, code, "print request rejected")
				continue
			}
			lastPrint = time.Now()
			printing = true
		}
	}
}

// angleSource returns how the loop obtains the next angle: the
// accelerometer pitch on hardware, a slow swing in simulate mode.
func angleSource(simulate bool, accel *adxl345.Dev, log *logrus.Logger) func() (float32, bool) {
	if simulate {
		start := time.Now()
		return func() (float32, bool) {
			t := time.Since(start).Seconds()
			return float32(30 * math.Sin(2*math.Pi*t/10)), true
		}
	}
	return func() (float32, bool) {
		sample, code := accel.ReadAxes()
		if code.IsError() {
			logCode(log, code, "accelerometer read failed")
			return 0, false
		}
		return sample.Pitch(), true
	}
}

func pinByName(name string) (gpio.PinOut, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no GPIO pin named %q", name)
	}
	return p, nil
}

func logCode(log *logrus.Logger, code errorstack.Code, msg string) {
	entry := log.WithField("code", code.Error())
	if code.Severity() == errorstack.SeverityWarning {
		entry.Warn(msg)
	} else {
		entry.Error(msg)
	}
}
