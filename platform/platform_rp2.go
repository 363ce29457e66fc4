//go:build rp2040 || rp2350

package platform

import (
	"image/color"
	"log/slog"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers/bmp280"
	"tinygo.org/x/drivers/sht3x"
	"tinygo.org/x/drivers/st7789"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"

	"envpanel-go/errcode"
	"envpanel-go/services/config"
	"envpanel-go/services/panel/env"
	"envpanel-go/services/panel/input"
)

// Board wiring for a Pico with an ST7789 240x240 on SPI0.
const (
	pinDisplaySCK = machine.GPIO18
	pinDisplaySDO = machine.GPIO19
	pinDisplayCS  = machine.GPIO17
	pinDisplayDC  = machine.GPIO16
	pinDisplayRST = machine.GPIO20
	pinDisplayBL  = machine.GPIO21

	pinConsoleTX = machine.GPIO0
	pinConsoleRX = machine.GPIO1

	pinTelemetryTX = machine.GPIO4
	pinTelemetryRX = machine.GPIO5

	maxGPIO = 29
)

// Hardware is every peripheral the panel needs on the device.
type Hardware struct {
	Up, Mid, Down input.Line
	RTC           *RTC
	Sensors       env.Sensors
	ADC           env.ADC
	Display       *LCD
}

// Console configures UART0 as the serial log and returns it.
func Console(baud uint32) *uartx.UART {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       pinConsoleTX,
		RX:       pinConsoleRX,
	})
	return u
}

// OpenHardware configures buses and devices. Sensor failures are logged and
// leave that source nil; an RTC or button failure is returned.
func OpenHardware(cfg config.Config, log *slog.Logger) (*Hardware, error) {
	hw := &Hardware{}

	var err error
	if hw.Up, err = button(cfg.Buttons.Up); err != nil {
		return nil, err
	}
	if hw.Mid, err = button(cfg.Buttons.Mid); err != nil {
		return nil, err
	}
	if hw.Down, err = button(cfg.Buttons.Down); err != nil {
		return nil, err
	}

	// Sensors on I2C0, RTC on I2C1.
	i2c0 := machine.I2C0
	_ = i2c0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	i2c1 := machine.I2C1
	_ = i2c1.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C1_SDA_PIN,
		SCL:       machine.I2C1_SCL_PIN,
	})

	bmp := bmp280.New(i2c0)
	bmp.Address = cfg.Sensors.BMP280Address
	if bmp.Connected() {
		bmp.Configure(bmp280.STANDBY_125MS, bmp280.FILTER_4X, bmp280.SAMPLING_16X, bmp280.SAMPLING_16X, bmp280.MODE_NORMAL)
		hw.Sensors.Pressure = pressure{&bmp}
	} else {
		log.Warn("sensor begin failed", "sensor", "bmp280", "addr", cfg.Sensors.BMP280Address)
	}

	sht := sht3x.New(i2c0)
	sht.Address = cfg.Sensors.SHT3xAddress
	if _, _, err := sht.ReadTemperatureHumidity(); err == nil {
		s := climate{&sht}
		hw.Sensors.Temperature, hw.Sensors.Humidity = s, s
	} else {
		log.Warn("sensor begin failed", "sensor", "sht3x", "addr", cfg.Sensors.SHT3xAddress, "err", err)
	}

	rtcBus := i2c1
	if cfg.RTC.Bus == 0 {
		rtcBus = i2c0
	}
	if hw.RTC, err = NewRTC(rtcBus, cfg.RTC.Address, log); err != nil {
		return nil, err
	}

	machine.InitADC()
	adc := machine.ADC{Pin: machine.ADC0}
	adc.Configure(machine.ADCConfig{})
	hw.ADC = battery{adc}

	hw.Display = NewLCD()
	return hw, nil
}

func button(n int) (input.Line, error) {
	if n < 0 || n > maxGPIO {
		return nil, errcode.Wrap(errcode.InvalidConfig, "platform.button", errcode.InvalidParams)
	}
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return p, nil
}

// ---- sensors ----

type pressure struct{ d *bmp280.Device }

// ReadPressure converts milli-pascal to hPa.
func (p pressure) ReadPressure() (float64, error) {
	mpa, err := p.d.ReadPressure()
	if err != nil {
		return 0, err
	}
	return float64(mpa) / 100000, nil
}

type climate struct{ d *sht3x.Device }

func (c climate) ReadTemperature() (float64, error) {
	mc, err := c.d.ReadTemperature()
	return float64(mc) / 1000, err
}

func (c climate) ReadHumidity() (float64, error) {
	h, err := c.d.ReadHumidity()
	return float64(h) / 100, err
}

// battery returns 12-bit counts from the 16-bit scaled reading.
type battery struct{ adc machine.ADC }

func (b battery) ReadRaw() uint32 { return uint32(b.adc.Get() >> 4) }

// ---- display ----

// LCD draws frames on an ST7789 with FreeMono fonts. Text scale above 1
// switches to the larger face.
type LCD struct {
	dev   st7789.Device
	small *tinyfont.Font
	large *tinyfont.Font
	font  *tinyfont.Font
	fg    color.RGBA
	bg    color.RGBA
}

func NewLCD() *LCD {
	machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 16 * machine.MHz,
		SCK:       pinDisplaySCK,
		SDO:       pinDisplaySDO,
		Mode:      0,
	})
	dev := st7789.New(machine.SPI0, pinDisplayRST, pinDisplayDC, pinDisplayCS, pinDisplayBL)
	dev.Configure(st7789.Config{Width: 240, Height: 240, Rotation: st7789.NO_ROTATION})
	l := &LCD{
		dev:   dev,
		small: &freemono.Regular12pt7b,
		large: &freemono.Regular18pt7b,
		fg:    color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		bg:    color.RGBA{A: 0xFF},
	}
	l.font = l.small
	return l
}

func (l *LCD) Clear()      { l.dev.FillScreen(l.bg) }
func (l *LCD) StartWrite() {}
func (l *LCD) EndWrite()   {}

func (l *LCD) SetTextScale(s float32) {
	if s > 1 {
		l.font = l.large
	} else {
		l.font = l.small
	}
}

// DrawText takes the top-left corner; tinyfont draws from the baseline.
func (l *LCD) DrawText(s string, x, y int16) {
	tinyfont.WriteLine(&l.dev, l.font, x, y+int16(l.font.YAdvance)*3/4, s, l.fg)
}

func (l *LCD) DrawRect(x, y, w, h int16, c color.RGBA) {
	_ = l.dev.FillRectangle(x, y, w, 1, c)
	_ = l.dev.FillRectangle(x, y+h-1, w, 1, c)
	_ = l.dev.FillRectangle(x, y, 1, h, c)
	_ = l.dev.FillRectangle(x+w-1, y, 1, h, c)
}

func (l *LCD) FillRect(x, y, w, h int16, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	_ = l.dev.FillRectangle(x, y, w, h, c)
}

// TelemetryPort configures UART1 for the bridge's JSON lines.
func TelemetryPort(baud uint32) *uartx.UART {
	u := uartx.UART1
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       pinTelemetryTX,
		RX:       pinTelemetryRX,
	})
	return u
}
