// Package console detects whether the process owns a terminal and keeps
// Ctrl+C working while SDL holds a locked OS thread.
package console

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procGetConsoleWindow      = kernel32.NewProc("GetConsoleWindow")
	procAllocConsole          = kernel32.NewProc("AllocConsole")
	procFreeConsole           = kernel32.NewProc("FreeConsole")
	procSetConsoleCtrlHandler = kernel32.NewProc("SetConsoleCtrlHandler")
)

const (
	ctrlCEvent     = 0
	ctrlBreakEvent = 1
)

// IsRunningFromConsole reports whether the program was started from a
// terminal. A double-clicked console build drops its console window; a
// GUI build started from a terminal gets one allocated.
func IsRunningFromConsole() bool {
	if hasConsoleWindow() {
		if launchedFromExplorer() {
			procFreeConsole.Call()
			return false
		}
		return true
	}
	if launchedFromExplorer() {
		return false
	}
	procAllocConsole.Call()
	redirectStdStreams()
	return true
}

func hasConsoleWindow() bool {
	hwnd, _, _ := procGetConsoleWindow.Call()
	return hwnd != 0
}

// redirectStdStreams points os.Std* at a freshly allocated console.
func redirectStdStreams() {
	out, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE)
	if err != nil || out == 0 {
		return
	}
	errh, err := windows.GetStdHandle(windows.STD_ERROR_HANDLE)
	if err != nil || errh == 0 {
		return
	}
	os.Stdout = os.NewFile(uintptr(out), "/dev/stdout")
	os.Stderr = os.NewFile(uintptr(errh), "/dev/stderr")
	if in, err := windows.GetStdHandle(windows.STD_INPUT_HANDLE); err == nil && in != 0 {
		os.Stdin = os.NewFile(uintptr(in), "/dev/stdin")
	}
}

func launchedFromExplorer() bool {
	ppid := parentProcessID(uint32(os.Getpid()))
	if ppid == 0 {
		return false
	}
	return strings.EqualFold(filepath.Base(processImageName(ppid)), "explorer.exe")
}

func parentProcessID(pid uint32) uint32 {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return 0
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	for err = windows.Process32First(snap, &entry); err == nil; err = windows.Process32Next(snap, &entry) {
		if entry.ProcessID == pid {
			return entry.ParentProcessID
		}
	}
	return 0
}

func processImageName(pid uint32) string {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(h)

	var buf [windows.MAX_PATH]uint16
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return ""
	}
	return windows.UTF16ToString(buf[:size])
}

var (
	interrupted atomic.Bool
	interruptCh chan struct{}
	handler     = windows.NewCallback(func(ctrlType uint32) uintptr {
		if ctrlType != ctrlCEvent && ctrlType != ctrlBreakEvent {
			return 0
		}
		if interruptCh != nil && interrupted.CompareAndSwap(false, true) {
			close(interruptCh)
		}
		return 1
	})
)

// SetupConsoleHandler closes shutdown on Ctrl+C or Ctrl+Break. The
// returned function registers the handler again; SDL replaces console
// handlers during its initialisation.
func SetupConsoleHandler(shutdown chan struct{}) func() {
	interruptCh = shutdown
	register := func() {
		procSetConsoleCtrlHandler.Call(handler, 1)
	}
	register()
	return register
}
