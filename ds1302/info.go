package ds1302

// Info describes the chip and this driver.
type Info struct {
	ChipName          string
	ManufacturerName  string
	Interface         string
	SupplyVoltageMinV float32
	SupplyVoltageMaxV float32
	MaxCurrentMA      float32
	TemperatureMin    float32
	TemperatureMax    float32
	DriverVersion     uint32 // major*1000 + minor*100
}

var info = Info{
	ChipName:          "Maxim Integrated DS1302",
	ManufacturerName:  "Maxim Integrated",
	Interface:         "GPIO",
	SupplyVoltageMinV: 2.0,
	SupplyVoltageMaxV: 5.5,
	MaxCurrentMA:      1.28,
	TemperatureMin:    -40,
	TemperatureMax:    85,
	DriverVersion:     1000,
}

// ChipInfo returns the static chip information. It does not need a device.
func ChipInfo() Info {
	return info
}
