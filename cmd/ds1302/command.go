package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	errgo "gopkg.in/errgo.v1"

	"github.com/libdriver/drivers/ds1302"
	"github.com/libdriver/drivers/ds1302/selftest"
)

// errInvalid is the cause of errors caused by bad command arguments.
var errInvalid = errgo.New("param is invalid")

func invalid(format string, args ...interface{}) error {
	return errgo.WithCausef(nil, errInvalid, "ds1302: "+format, args...)
}

const usage = `Usage:
  ds1302 (-i | --information)
  ds1302 (-h | --help)
  ds1302 (-p | --port)
  ds1302 (-t reg | --test=reg)
  ds1302 (-t ram | --test=ram) [--times=<num>]
  ds1302 (-e basic-set-time | --example=basic-set-time) --timestamp=<time>
  ds1302 (-e basic-get-time | --example=basic-get-time)
  ds1302 (-e basic-set-ram | --example=basic-set-ram) --addr=<address> --data=<hex>
  ds1302 (-e basic-get-ram | --example=basic-get-ram) --addr=<address>
  ds1302 (-e advance-set-time | --example=advance-set-time) --timestamp=<time>
  ds1302 (-e advance-get-time | --example=advance-get-time)
  ds1302 (-e advance-set-ram | --example=advance-set-ram) --addr=<address> --data=<hex>
  ds1302 (-e advance-get-ram | --example=advance-get-ram) --addr=<address>
  ds1302 (-e advance-charge | --example=advance-charge) --charge=<ENABLE | DISABLE | setting>
  ds1302 (-e advance-write-burst | --example=advance-write-burst) [--type=<CLOCK | RAM>] [--buffer=<hex>]
  ds1302 (-e advance-read-burst | --example=advance-read-burst) [--type=<CLOCK | RAM>]

Options:
`

// options holds the arguments of one command.
type options struct {
	fs *pflag.FlagSet

	help        bool
	information bool
	port        bool
	example     string
	test        string
	addr        uint8
	buffer      string
	charge      string
	data        string
	times       int
	timestamp   int64
	burstType   string
}

func newOptions() *options {
	o := &options{}
	fs := pflag.NewFlagSet("ds1302", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)
	fs.BoolVarP(&o.help, "help", "h", false, "show the help")
	fs.BoolVarP(&o.information, "information", "i", false, "show the chip information")
	fs.BoolVarP(&o.port, "port", "p", false, "display the pin connections of the current backend")
	fs.StringVarP(&o.example, "example", "e", "", "run the driver example `name`")
	fs.StringVarP(&o.test, "test", "t", "", "run the driver test, `reg` or ram")
	fs.Uint8Var(&o.addr, "addr", 0, "set ram `address`")
	fs.StringVar(&o.buffer, "buffer", "", "set burst buffer in `hex` (default random)")
	fs.StringVar(&o.charge, "charge", "DISABLE", "set battery `charge`: ENABLE, DISABLE or a setting such as 1-diode-4k")
	fs.StringVar(&o.data, "data", "0x00", "set ram data in `hex`")
	fs.IntVar(&o.times, "times", 3, "set the running `times`")
	fs.Int64Var(&o.timestamp, "timestamp", 0, "set the unix `time`stamp")
	fs.StringVar(&o.burstType, "type", "RAM", "set burst `type`: CLOCK or RAM")
	o.fs = fs
	return o
}

func (o *options) set(name string) bool {
	return o.fs.Changed(name)
}

// runner runs commands against one device.
type runner struct {
	dev  *ds1302.Device
	cfg  Config
	out  io.Writer
	log  *zap.Logger
	rand *rand.Rand
	now  func() time.Time
}

// run runs the command given by args. Output goes to r.out.
func (r *runner) run(args []string) error {
	o := newOptions()
	if len(args) == 0 {
		printHelp(r.out, o)
		return nil
	}
	if err := o.fs.Parse(args); err != nil {
		return invalid("%v", err)
	}
	return r.exec(o)
}

// exec runs the command held by the parsed options o.
func (r *runner) exec(o *options) error {
	if o.fs.NArg() > 0 {
		return invalid("unexpected argument %q", o.fs.Arg(0))
	}
	n := 0
	for _, name := range []string{"help", "information", "port", "example", "test"} {
		if o.set(name) {
			n++
		}
	}
	if n != 1 {
		return invalid("need one of -h, -i, -p, -e or -t")
	}
	switch {
	case o.help:
		printHelp(r.out, o)
		return nil
	case o.information:
		r.information()
		return nil
	case o.port:
		r.port()
		return nil
	case o.set("test"):
		return r.selfTest(o)
	}
	ex, ok := examples[o.example]
	if !ok {
		return invalid("unknown example %q", o.example)
	}
	return ex(r, o)
}

func printHelp(w io.Writer, o *options) {
	fmt.Fprint(w, usage)
	fmt.Fprint(w, o.fs.FlagUsages())
}

func (r *runner) information() {
	info := ds1302.ChipInfo()
	fmt.Fprintf(r.out, "ds1302: chip is %s.\n", info.ChipName)
	fmt.Fprintf(r.out, "ds1302: manufacturer is %s.\n", info.ManufacturerName)
	fmt.Fprintf(r.out, "ds1302: interface is %s.\n", info.Interface)
	fmt.Fprintf(r.out, "ds1302: driver version is %d.%d.\n", info.DriverVersion/1000, info.DriverVersion%1000/100)
	fmt.Fprintf(r.out, "ds1302: min supply voltage is %0.1fV.\n", info.SupplyVoltageMinV)
	fmt.Fprintf(r.out, "ds1302: max supply voltage is %0.1fV.\n", info.SupplyVoltageMaxV)
	fmt.Fprintf(r.out, "ds1302: max current is %0.2fmA.\n", info.MaxCurrentMA)
	fmt.Fprintf(r.out, "ds1302: max temperature is %0.1fC.\n", info.TemperatureMax)
	fmt.Fprintf(r.out, "ds1302: min temperature is %0.1fC.\n", info.TemperatureMin)
}

func (r *runner) port() {
	pins := r.cfg.pins()
	var name func(p uint8) string
	switch r.cfg.Backend {
	case "ch347":
		name = func(p uint8) string { return fmt.Sprintf("CH347 GPIO%d", p) }
	case "pcf8574":
		name = func(p uint8) string {
			return fmt.Sprintf("PCF8574 0x%02X P%d", r.cfg.PCF8574.Address, p)
		}
	default:
		name = func(uint8) string { return r.cfg.Backend }
	}
	fmt.Fprintf(r.out, "ds1302: CE connected to %s.\n", name(pins.CE))
	fmt.Fprintf(r.out, "ds1302: SCLK connected to %s.\n", name(pins.SCLK))
	fmt.Fprintf(r.out, "ds1302: IO connected to %s.\n", name(pins.IO))
}

func (r *runner) selfTest(o *options) error {
	cfg := selftest.Config{
		Logger: r.log,
		Rand:   r.rand,
	}
	switch o.test {
	case "reg":
		return errgo.Mask(selftest.Registers(r.dev, cfg), errgo.Any)
	case "ram":
		if o.times < 0 {
			return invalid("negative times %d", o.times)
		}
		return errgo.Mask(selftest.RAM(r.dev, o.times, cfg), errgo.Any)
	}
	return invalid("unknown test %q", o.test)
}

// withDevice prepares the device, calls f and deinitializes the device.
func (r *runner) withDevice(f func(d *ds1302.Device) error) (err error) {
	if err := selftest.Prepare(r.dev); err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	defer func() {
		if derr := r.dev.Deinit(); derr != nil && err == nil {
			err = errgo.Mask(derr, errgo.Any)
		}
	}()
	return f(r.dev)
}

// examples holds the runnable examples by name. The basic and advance
// variants behave the same.
var examples = map[string]func(r *runner, o *options) error{
	"basic-set-time":      (*runner).setTime,
	"basic-get-time":      (*runner).getTime,
	"basic-set-ram":       (*runner).setRAM,
	"basic-get-ram":       (*runner).getRAM,
	"advance-set-time":    (*runner).setTime,
	"advance-get-time":    (*runner).getTime,
	"advance-set-ram":     (*runner).setRAM,
	"advance-get-ram":     (*runner).getRAM,
	"advance-charge":      (*runner).setCharge,
	"advance-write-burst": (*runner).writeBurst,
	"advance-read-burst":  (*runner).readBurst,
}

func (r *runner) setTime(o *options) error {
	if !o.set("timestamp") {
		return invalid("no timestamp")
	}
	return r.withDevice(func(d *ds1302.Device) error {
		if err := d.Set(time.Unix(o.timestamp, 0)); err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		fmt.Fprintf(r.out, "set timestamp %d.\n", o.timestamp)
		return nil
	})
}

func (r *runner) getTime(o *options) error {
	return r.withDevice(func(d *ds1302.Device) error {
		t, err := d.ReadTime()
		if err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		fmt.Fprintf(r.out, "%v.\n", t)
		return nil
	})
}

func (r *runner) setRAM(o *options) error {
	if !o.set("addr") {
		return invalid("no addr")
	}
	if !o.set("data") {
		return invalid("no data")
	}
	data, err := parseByte(o.data)
	if err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	return r.withDevice(func(d *ds1302.Device) error {
		if err := d.WriteRAM(o.addr, []byte{data}); err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		fmt.Fprintf(r.out, "write ram addr 0x%02X data 0x%02X.\n", o.addr, data)
		return nil
	})
}

func (r *runner) getRAM(o *options) error {
	if !o.set("addr") {
		return invalid("no addr")
	}
	return r.withDevice(func(d *ds1302.Device) error {
		var buf [1]byte
		if err := d.ReadRAM(o.addr, buf[:]); err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		fmt.Fprintf(r.out, "read ram addr 0x%02X data 0x%02X.\n", o.addr, buf[0])
		return nil
	})
}

func (r *runner) setCharge(o *options) error {
	if !o.set("charge") {
		return invalid("no charge")
	}
	c, err := ds1302.ParseCharge(o.charge)
	if err != nil {
		return invalid("unknown charge %q", o.charge)
	}
	return r.withDevice(func(d *ds1302.Device) error {
		if err := d.SetCharge(c); err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		if c == ds1302.ChargeDisabled {
			fmt.Fprintf(r.out, "disable charge.\n")
		} else {
			fmt.Fprintf(r.out, "enable charge %v.\n", c)
		}
		return nil
	})
}

func (r *runner) writeBurst(o *options) error {
	clock, err := parseBurstType(o.burstType)
	if err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	size := ds1302.RAMSize
	if clock {
		size = ds1302.ClockBurstSize
	}
	var buf []byte
	switch {
	case o.set("buffer"):
		buf, err = parseBuffer(o.buffer, size)
		if err != nil {
			return errgo.Mask(err, errgo.Any)
		}
	case clock:
		// A random clock image would not be a valid time.
		regs, err := ds1302.EncodeTime(ds1302.TimeOf(r.now().In(r.dev.TimeZone())), ds1302.ClockRegisters{})
		if err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		buf = regs[:]
	default:
		buf = make([]byte, size)
		r.rand.Read(buf)
	}
	return r.withDevice(func(d *ds1302.Device) error {
		write, name := d.WriteRAMBurst, "ram"
		if clock {
			write, name = d.WriteClockBurst, "clock"
		}
		if err := write(buf); err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		fmt.Fprintf(r.out, "%s burst write: %s\n", name, hexBytes(buf))
		return nil
	})
}

func (r *runner) readBurst(o *options) error {
	clock, err := parseBurstType(o.burstType)
	if err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	return r.withDevice(func(d *ds1302.Device) error {
		buf := make([]byte, ds1302.RAMSize)
		read, name := d.ReadRAMBurst, "ram"
		if clock {
			buf = make([]byte, ds1302.ClockBurstSize)
			read, name = d.ReadClockBurst, "clock"
		}
		if err := read(buf); err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		fmt.Fprintf(r.out, "%s burst read: %s\n", name, hexBytes(buf))
		return nil
	})
}

// parseBurstType reports whether s names the clock burst.
func parseBurstType(s string) (bool, error) {
	switch s {
	case "CLOCK":
		return true, nil
	case "RAM":
		return false, nil
	}
	return false, invalid("unknown burst type %q", s)
}

func trimHex(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// parseByte parses a hexadecimal byte with an optional 0x prefix.
func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(trimHex(s), 16, 8)
	if err != nil {
		return 0, invalid("bad data %q", s)
	}
	return uint8(v), nil
}

// parseBuffer parses size bytes given as hexadecimal digits with an
// optional 0x prefix.
func parseBuffer(s string, size int) ([]byte, error) {
	buf, err := hex.DecodeString(trimHex(s))
	if err != nil {
		return nil, invalid("bad buffer %q", s)
	}
	if len(buf) != size {
		return nil, invalid("buffer has %d bytes, want %d", len(buf), size)
	}
	return buf, nil
}

func hexBytes(buf []byte) string {
	var b strings.Builder
	for i, v := range buf {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "0x%02X", v)
	}
	return b.String()
}
