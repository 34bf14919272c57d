package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-errors/errors"
	"github.com/ranmrdrakono/mmutable/arch"
	"github.com/ranmrdrakono/mmutable/config"
	"github.com/ranmrdrakono/mmutable/firmware"
	"github.com/ranmrdrakono/mmutable/memmap"
	"github.com/ranmrdrakono/mmutable/mmu"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app   = kingpin.New("mmutable", "Decode and flatten the boot MMU table of a baseband firmware image.")
	debug = app.Flag("debug", "Enable debug logging.").Bool()

	mapCmd          = app.Command("map", "Print the memory map described by the MMU table.")
	mapImage        = mapCmd.Arg("image", "Raw MAIN section or ELF image.").Required().ExistingFile()
	mapConfig       = mapCmd.Flag("config", "YAML variant profile.").ExistingFile()
	mapSoC          = mapCmd.Flag("soc", "SoC name, guessed from the image when empty.").String()
	mapLoadAddress  = mapCmd.Flag("load-address", "Load address of a raw image.").Uint32()
	mapTableAddress = mapCmd.Flag("table-address", "Address of the MMU table.").Uint32()
	mapTableSymbol  = mapCmd.Flag("table-symbol", "Symbol naming the MMU table (ELF images).").String()
	mapSlots        = mapCmd.Flag("slots", "Number of table entries.").Int()
	mapFallback     = mapCmd.Flag("fallback", "Use the hand-written single RAM entry table.").Bool()
	mapUnprivileged = mapCmd.Flag("unprivileged", "Register unprivileged instead of privileged permissions.").Bool()
	mapUnicorn      = mapCmd.Flag("unicorn", "Check that the map loads into a unicorn engine.").Bool()
	mapDump         = mapCmd.Flag("dump", "Dump the decoded table entries.").Bool()

	decodeCmd   = app.Command("decode", "Decode a single table entry.")
	decodeVirt  = decodeCmd.Arg("virt", "Virtual base.").Required().Uint32()
	decodePhys  = decodeCmd.Arg("phys", "Physical base.").Required().Uint32()
	decodeEnd   = decodeCmd.Arg("end", "Physical end.").Required().Uint32()
	decodeFlags = decodeCmd.Arg("flags", "Descriptor flags.").Required().Uint32()
)

func check(err error) {
	if err == nil {
		return
	}
	fields := log.Fields{"error": err}
	if e, ok := err.(*errors.Error); ok {
		fields["stack"] = e.ErrorStack()
	}
	log.WithFields(fields).Fatal("mmutable failed")
}

// loadConfig merges the profile file with the flags given on the command line.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *mapConfig != "" {
		var err error
		if cfg, err = config.Load(*mapConfig); err != nil {
			return cfg, err
		}
	}
	if *mapSoC != "" {
		cfg.SoC = *mapSoC
	}
	if *mapLoadAddress != 0 {
		cfg.LoadAddress = *mapLoadAddress
	}
	if *mapTableAddress != 0 {
		cfg.TableAddress = *mapTableAddress
	}
	if *mapTableSymbol != "" {
		cfg.TableSymbol = *mapTableSymbol
	}
	if *mapSlots != 0 {
		cfg.Slots = *mapSlots
	}
	if *mapFallback {
		cfg.FallbackTable = true
	}
	if *mapUnprivileged {
		cfg.Privileged = false
	}
	return cfg, cfg.Validate()
}

func runMap() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	img, err := firmware.LoadTable(cfg, *mapImage)
	if err != nil {
		return err
	}

	if s, v, err := firmware.IdentifySoC(cfg, img.Section); err == nil {
		fmt.Printf("soc %v date %d\n", s, v.Date)
	} else if cfg.SoC != "" {
		return err
	} else {
		log.WithFields(log.Fields{"error": err}).Warn("SoC not identified")
	}

	if *mapDump {
		spew.Dump(img.Entries)
	}

	builder := memmap.NewBuilder(cfg.Privileged)
	builder.AddMMURanges(mmu.Consolidate(img.Entries))
	for _, pair := range builder.Overlaps() {
		log.WithFields(log.Fields{"region": pair[0].Name, "other": pair[1].Name}).Warn("Overlapping memory regions")
	}
	log.WithFields(log.Fields{"regions": builder.Names()}).Debug("Memory map")
	regions := builder.Regions()
	for _, r := range regions {
		fmt.Printf("%-16s 0x%08x 0x%08x %v\n", r.Name, r.Range.From, r.Range.Length(), r.Flags)
	}
	fmt.Printf("fingerprint %016x\n", memmap.Fingerprint(regions))

	if *mapUnicorn {
		mu, err := memmap.NewUnicorn(&arch.ArchCortexA55{})
		if err != nil {
			return err
		}
		defer mu.Close()
		if err := memmap.MapUnicorn(mu, regions); err != nil {
			return err
		}
		fmt.Println("unicorn ok")
	}
	return nil
}

func runDecode() error {
	d, err := mmu.NewDescriptor(0, *decodeVirt, *decodePhys, *decodeEnd, *decodeFlags)
	if err != nil {
		return err
	}
	fmt.Println(d)
	fmt.Printf("access %s priv %s unpriv %s reserved %v\n", d.AccessName(), d.RWX(true), d.RWX(false), d.Reserved())
	fmt.Printf("NS=%v nG=%v S=%v TEX=%d C=%v B=%v\n", d.NS, d.NG, d.S, d.TEX, d.C, d.B)
	return nil
}

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	log.SetLevel(log.WarnLevel)
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	switch cmd {
	case mapCmd.FullCommand():
		check(runMap())
	case decodeCmd.FullCommand():
		check(runDecode())
	}
}
