// Command n64rd talks to a GameShark Pro cartridge over the parallel
// port: read and write N64 CPU memory, dump the cartridge ROM, detect
// the firmware version, and push firmware upgrades.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	n64rd "github.com/parasyte/n64rd"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("n64rd", flag.ContinueOnError)

	portArg := fs.String("p", "", "port number (default 0x378) or device path, e.g. /dev/parport0")
	detect := fs.Bool("v", false, "detect GameShark firmware version")
	address := fs.Uint64("a", 0x80000000, "address")
	length := fs.Uint64("l", 0x00400000, "length")
	readFile := fs.String("r", "", "read memory; copy <length> bytes from memory <address> (to file, or stdout if unset)")
	readROMFile := fs.String("d", "", "dump ROM 32 bits at a time; copy <length> bytes from memory <address> (to file, or stdout if unset)")
	writeFile := fs.String("w", "", "write memory; copy from <file> to memory <address>")
	upgradeFile := fs.String("u", "", "upgrade firmware with <file>")

	readSet, readROMSet, writeSet := false, false, false
	if err := fs.Parse(args); err != nil {
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "r":
			readSet = true
		case "d":
			readROMSet = true
		case "w":
			writeSet = true
		}
	})

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := n64rd.NewConfig().WithLogger(logger)
	if *portArg != "" {
		if n, err := strconv.ParseUint(*portArg, 0, 16); err == nil {
			cfg.WithPort(uint16(n))
		} else {
			cfg.WithDevicePath(*portArg)
		}
	}

	sess, err := n64rd.Open(cfg)
	if err != nil {
		printErr(err)
		return 1
	}
	defer sess.Close()

	if *detect {
		if err := detectVersion(sess); err != nil {
			printErr(err)
			return 1
		}
	}
	if readSet {
		if err := readData(sess, *readFile, uint32(*address), uint32(*length)); err != nil {
			printErr(err)
			return 1
		}
	}
	if readROMSet {
		if err := readROM(sess, *readROMFile, uint32(*address), uint32(*length)); err != nil {
			printErr(err)
			return 1
		}
	}
	if writeSet {
		if err := writeData(sess, *writeFile, uint32(*address)); err != nil {
			printErr(err)
			return 1
		}
	}
	if *upgradeFile != "" {
		if err := upgrade(sess, *upgradeFile); err != nil {
			printErr(err)
			return 1
		}
	}

	return 0
}

func printErr(err error) {
	fmt.Fprintln(os.Stderr, err)
}

func detectVersion(sess *n64rd.Session) error {
	if err := sess.Enter(); err != nil {
		return err
	}
	v, err := sess.Version()
	if err != nil {
		return err
	}
	fmt.Printf("Detected: %s\n", v.Version)
	return nil
}

type dotProgress struct{}

func (dotProgress) Report(int, uint32, uint32) {
	fmt.Print(".")
}

func readData(sess *n64rd.Session, file string, address, size uint32) error {
	if err := sess.Enter(); err != nil {
		return err
	}
	mode, err := sess.Where()
	if err != nil {
		return err
	}
	if mode != n64rd.ModeGame {
		return fmt.Errorf("read is only available while in-game")
	}

	if err := sess.Enter(); err != nil {
		return err
	}
	data := make([]byte, size)
	ranges := []n64rd.Range{{Address: address, Size: size}}
	if err := sess.Read(ranges, data, dotProgress{}); err != nil {
		return err
	}
	if err := sess.Unpause(); err != nil {
		return err
	}
	fmt.Println()

	return writeOutput(file, data, address)
}

func readROM(sess *n64rd.Session, file string, address, size uint32) error {
	if err := sess.Enter(); err != nil {
		return err
	}
	data, err := sess.ReadROM(n64rd.Range{Address: address, Size: size}, dotProgress{})
	if err != nil {
		return err
	}
	fmt.Println()
	return writeOutput(file, data, address)
}

func writeData(sess *n64rd.Session, file string, address uint32) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	if err := sess.Enter(); err != nil {
		return err
	}
	mode, err := sess.Where()
	if err != nil {
		return err
	}
	if mode != n64rd.ModeGame {
		return fmt.Errorf("write is only available while in-game")
	}

	if err := sess.Enter(); err != nil {
		return err
	}
	ranges := []n64rd.Range{{Address: address, Size: uint32(len(data))}}
	if err := sess.Write(ranges, data, dotProgress{}); err != nil {
		return err
	}
	if err := sess.Unpause(); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

func upgrade(sess *n64rd.Session, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if err := sess.Enter(); err != nil {
		return err
	}
	fmt.Printf("Uploading `%s`...\n", file)
	if err := sess.Upgrade(data, dotProgress{}); err != nil {
		return err
	}
	fmt.Println("Upgrade complete")
	return nil
}

func writeOutput(file string, data []byte, address uint32) error {
	if file != "" {
		return os.WriteFile(file, data, 0644)
	}
	hexDump(data, address)
	return nil
}

func hexDump(data []byte, address uint32) {
	var ascii strings.Builder
	for i, b := range data {
		if i%16 == 0 {
			fmt.Printf("%08X  ", address+uint32(i))
		}
		fmt.Printf("%02X ", b)
		if b >= 0x20 && b < 0x7F {
			ascii.WriteByte(b)
		} else {
			ascii.WriteByte('.')
		}
		if i%16 == 15 {
			fmt.Printf(" %s\n", ascii.String())
			ascii.Reset()
		}
	}
	if len(data)%16 != 0 {
		for i := 0; i < 16-(len(data)%16); i++ {
			fmt.Print("   ")
		}
		fmt.Printf(" %s\n", ascii.String())
	}
	fmt.Println()
}
