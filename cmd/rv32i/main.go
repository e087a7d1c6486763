// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/rv32i/emulator"
)

func main() {
	var compile string
	var binary string
	var save string
	var disasm bool
	var limit int
	var screen bool
	var verbose bool

	flag.StringVar(&compile, "c", "", ".s file to assemble")
	flag.StringVar(&binary, "b", "", "binary image to load at address 0")
	flag.StringVar(&save, "s", "", "Save assembled image to file, do not execute")
	flag.BoolVar(&disasm, "d", false, "Print a disassembly listing, do not execute")
	flag.IntVar(&limit, "n", 0, "Maximum instructions to execute (0 is unlimited)")
	flag.BoolVar(&screen, "screen", false, "Render the framebuffer on exit")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		logrus.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	switch {
	case len(compile) != 0:
		inf, err := os.Open(compile)
		if err != nil {
			logrus.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		emu.Program, err = emu.Assembler().Parse(inf)
		if err != nil {
			logrus.Fatalf("%v: %v", compile, err)
		}
		emu.Image = emu.Program.Binary()
	case len(binary) != 0:
		image, err := os.ReadFile(binary)
		if err != nil {
			logrus.Fatalf("%v: %v", binary, err)
		}
		emu.Image = image
	default:
		logrus.Fatalf("%v: one of -c or -b is required", os.Args[0])
	}

	if len(save) != 0 {
		err := os.WriteFile(save, emu.Image, 0644)
		if err != nil {
			logrus.Fatalf("%v: %v", save, err)
		}
		return
	}

	err := emu.Reset()
	if err != nil {
		logrus.Fatal(err)
	}

	if disasm {
		for pc := 0; pc+4 <= len(emu.Image); pc += 4 {
			line, err := emu.Disassemble(uint32(pc))
			if err != nil {
				logrus.Fatal(err)
			}
			fmt.Println(line)
		}
		return
	}

	ticks, done, err := emu.Run(limit)
	if err != nil {
		for _, line := range emu.Backtrace() {
			fmt.Fprintln(os.Stderr, line)
		}
		fmt.Fprint(os.Stderr, emu.Cpu.String())
		logrus.Fatal(err)
	}

	if verbose {
		logrus.WithFields(logrus.Fields{
			"ticks": ticks,
			"done":  done,
		}).Info("rv32i: stopped")
	}

	fmt.Print(emu.Cpu.String())
	if screen {
		err = emu.RenderScreen(os.Stdout)
		if err != nil {
			logrus.Fatal(err)
		}
	}
}
