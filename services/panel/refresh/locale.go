package refresh

// Locale holds labels and formats for one display language.
type Locale struct {
	Name     string
	Weekdays [7]string // Sunday first

	Temperature string // fmt format taking one float
	Humidity    string
	Pressure    string
	Command     string // fmt format taking the caption

	// Default command captions, in registry order.
	SyncCaption string
	NoopCaption string
	SendCaption string
}

var Japanese = Locale{
	Name:        "ja",
	Weekdays:    [7]string{"日", "月", "火", "水", "木", "金", "土"},
	Temperature: "気温:%0.1f℃",
	Humidity:    "湿度:%0.1f%%",
	Pressure:    "気圧:%0.1fhPa",
	Command:     "CMD:%s",
	SyncCaption: "時刻合わせ",
	NoopCaption: "--",
	SendCaption: "データ送信",
}

var English = Locale{
	Name:        "en",
	Weekdays:    [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	Temperature: "Temp:%0.1fC",
	Humidity:    "Humi:%0.1f%%",
	Pressure:    "Pres:%0.1fhPa",
	Command:     "CMD:%s",
	SyncCaption: "Set time",
	NoopCaption: "--",
	SendCaption: "Send data",
}

// LocaleByName returns the locale registered under name.
func LocaleByName(name string) (Locale, bool) {
	switch name {
	case Japanese.Name:
		return Japanese, true
	case English.Name:
		return English, true
	}
	return Locale{}, false
}
