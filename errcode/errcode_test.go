package errcode

import (
	"errors"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"no_network":         NoNetwork,
		"no_time_response":   NoTimeResponse,
		"rtc_write_failed":   RTCWriteFailed,
		"rtc_read_failed":    RTCReadFailed,
		"sensor_unavailable": SensorUnavailable,
		"halted":             Halted,
		"invalid_config":     InvalidConfig,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestWrapCarriesCodeAndCause(t *testing.T) {
	cause := errors.New("i2c nack")
	err := Wrap(RTCWriteFailed, "sync.set_time", cause)

	if got := Of(err); got != RTCWriteFailed {
		t.Fatalf("Of = %q, want %q", got, RTCWriteFailed)
	}
	if !errors.Is(err, RTCWriteFailed) {
		t.Fatal("errors.Is should match the code")
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is should match the cause")
	}
	if got, want := err.Error(), "sync.set_time: rtc_write_failed: i2c nack"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestOfDefaults(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("nil should map to OK")
	}
	if Of(errors.New("x")) != Error {
		t.Fatal("plain error should map to Error")
	}
	if Of(Timeout) != Timeout {
		t.Fatal("bare code should map to itself")
	}
}
