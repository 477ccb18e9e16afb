package selftest

import (
	"bytes"

	"go.uber.org/zap"
	errgo "gopkg.in/errgo.v1"

	"github.com/libdriver/drivers/ds1302"
)

// RAM writes random data to the whole RAM and reads it back, times rounds
// with single register access and times rounds with bursts. d is initialized
// first and deinitialized afterwards.
func RAM(d *ds1302.Device, times int, cfg Config) (err error) {
	cfg = cfg.defaults()
	log := cfg.Logger
	logInfo(log)
	log.Info("start ram test", zap.Int("times", times))
	if err := Prepare(d); err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	defer func() {
		if derr := d.Deinit(); derr != nil && err == nil {
			err = errgo.Mask(derr, errgo.Any)
		}
	}()

	rounds := []struct {
		name  string
		write func([]byte) error
		read  func([]byte) error
	}{{
		name:  "common ram",
		write: func(buf []byte) error { return d.WriteRAM(0, buf) },
		read:  func(buf []byte) error { return d.ReadRAM(0, buf) },
	}, {
		name:  "burst ram",
		write: d.WriteRAMBurst,
		read:  d.ReadRAMBurst,
	}}
	buf := make([]byte, ds1302.RAMSize)
	check := make([]byte, ds1302.RAMSize)
	for _, round := range rounds {
		log.Info(round.name + " test")
		for i := 0; i < times; i++ {
			if _, err := cfg.Rand.Read(buf); err != nil {
				return errgo.Mask(err)
			}
			if err := round.write(buf); err != nil {
				return errgo.Mask(err, errgo.Any)
			}
			if err := round.read(check); err != nil {
				return errgo.Mask(err, errgo.Any)
			}
			if !bytes.Equal(buf, check) {
				log.Debug("ram differs", zap.Binary("write", buf), zap.Binary("read", check))
				return mismatch(round.name, buf, check)
			}
			log.Info("check passed", zap.Int("round", i+1), zap.Int("of", times))
		}
	}
	log.Info("finish ram test")
	return nil
}
