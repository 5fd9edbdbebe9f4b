//go:build linux

package hook

import (
	"bufio"
	"encoding/binary"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// evdev event types and key codes used for character translation.
const (
	evKey = 0x01

	keyPressed = 1
)

// linuxHook reads raw key events from /dev/input keyboard devices and
// translates them to characters with a US keymap.
type linuxHook struct {
	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
	files   []*os.File

	// dispatchMu serializes callback invocations across device
	// readers.
	dispatchMu sync.Mutex

	// modifier state, guarded by dispatchMu since it is only touched
	// on the dispatch path.
	shift   bool
	ctrl    bool
	alt     bool
	command bool
}

func newPlatformHook() Hook {
	return &linuxHook{}
}

// Start opens every keyboard device and begins reading events.
func (h *linuxHook) Start(cb Callback) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return ErrAlreadyRunning
	}

	devices, err := findKeyboardDevices()
	if err != nil || len(devices) == 0 {
		return ErrInstallFailed
	}

	var files []*os.File
	for _, dev := range devices {
		f, err := os.OpenFile(dev, os.O_RDONLY, 0)
		if err != nil {
			slog.Debug("cannot open input device", "device", dev, "error", err)
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		// Devices exist but none are readable: a permission problem,
		// not an install problem.
		return ErrPermissionDenied
	}

	h.files = files
	h.done = make(chan struct{})
	h.running = true

	for _, f := range files {
		h.wg.Add(1)
		go h.readDevice(f, cb)
	}

	slog.Info("keyboard hook started", "devices", len(files))
	return nil
}

// Stop closes all devices and waits for readers to exit.
func (h *linuxHook) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	close(h.done)
	for _, f := range h.files {
		f.Close()
	}
	h.files = nil
	h.running = false
	h.mu.Unlock()

	h.wg.Wait()
	slog.Info("keyboard hook stopped")
}

// inputEvent mirrors the kernel's struct input_event on 64-bit
// platforms.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const inputEventSize = 24

// readDevice reads raw events from one device until it is closed.
func (h *linuxHook) readDevice(f *os.File, cb Callback) {
	defer h.wg.Done()

	buf := make([]byte, inputEventSize)
	for {
		if _, err := f.Read(buf); err != nil {
			select {
			case <-h.done:
			default:
				slog.Warn("input device read failed", "device", f.Name(), "error", err)
			}
			return
		}

		ev := inputEvent{
			Type:  binary.LittleEndian.Uint16(buf[16:18]),
			Code:  binary.LittleEndian.Uint16(buf[18:20]),
			Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
		}
		if ev.Type != evKey {
			continue
		}

		h.dispatchMu.Lock()
		h.handleKey(ev, cb)
		h.dispatchMu.Unlock()
	}
}

// handleKey updates modifier state and delivers character events.
// Callers hold dispatchMu.
func (h *linuxHook) handleKey(ev inputEvent, cb Callback) {
	pressed := ev.Value != 0 // press or autorepeat

	switch ev.Code {
	case 42, 54: // KEY_LEFTSHIFT, KEY_RIGHTSHIFT
		h.shift = pressed
		return
	case 29, 97: // KEY_LEFTCTRL, KEY_RIGHTCTRL
		h.ctrl = pressed
		return
	case 56, 100: // KEY_LEFTALT, KEY_RIGHTALT
		h.alt = pressed
		return
	case 125, 126: // KEY_LEFTMETA, KEY_RIGHTMETA
		h.command = pressed
		return
	}

	// Key-down and autorepeat produce text; releases do not.
	if ev.Value != keyPressed && ev.Value != 2 {
		return
	}

	event := KeyEvent{
		Character:   keyCodeToString(ev.Code, h.shift),
		CommandHeld: h.command,
		ControlHeld: h.ctrl,
		OptionHeld:  h.alt,
	}
	cb(event)
}

// findKeyboardDevices locates event devices with key capabilities by
// scanning /proc/bus/input/devices, plus any /dev/input/by-id keyboard
// symlinks.
func findKeyboardDevices() ([]string, error) {
	var devices []string

	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var handler string
	isKeyboard := false

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "H: Handlers=") {
			for _, part := range strings.Fields(line) {
				if strings.HasPrefix(part, "event") {
					handler = "/dev/input/" + part
				}
			}
		}

		if strings.HasPrefix(line, "B: KEY=") && len(line) > 10 {
			isKeyboard = true
		}

		if line == "" {
			if isKeyboard && handler != "" {
				devices = append(devices, handler)
			}
			handler = ""
			isKeyboard = false
		}
	}

	matches, _ := filepath.Glob("/dev/input/by-id/*-kbd")
	devices = append(devices, matches...)

	return devices, nil
}
