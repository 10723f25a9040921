// Package bus is the control channel between the CLI and the daemon: a unix
// socket carrying one request line and one response line per connection.
package bus

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	AppDir   = "healthtranslate"
	SockName = "control.sock"
	PidName  = "healthtranslate.pid"
	ProtoVer = "1.0"
)

// DialTimeout bounds connecting to the daemon, not the request itself.
const DialTimeout = 2 * time.Second

func runtimeDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppDir), nil
}

// ~/.cache/healthtranslate/control.sock
func SockPath() (string, error) {
	dir, err := runtimeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SockName), nil
}

// ~/.cache/healthtranslate/healthtranslate.pid
func PidPath() (string, error) {
	dir, err := runtimeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PidName), nil
}

type socketManager struct {
	path string
}

func defaultSocketManager() (*socketManager, error) {
	path, err := SockPath()
	if err != nil {
		return nil, err
	}
	return &socketManager{path: path}, nil
}

func (s *socketManager) listen() (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(s.path) // stale socket from last run
	return net.Listen("unix", s.path)
}

func (s *socketManager) dial() (net.Conn, error) {
	return net.DialTimeout("unix", s.path, DialTimeout)
}

func Listen() (net.Listener, error) {
	sm, err := defaultSocketManager()
	if err != nil {
		return nil, err
	}
	return sm.listen()
}

func Dial() (net.Conn, error) {
	sm, err := defaultSocketManager()
	if err != nil {
		return nil, err
	}
	return sm.dial()
}

// SendCommand sends one request to the daemon and returns its decoded
// response. An ERR line is returned as *RemoteError.
func SendCommand(cmd byte, args ...string) (Response, error) {
	c, err := Dial()
	if err != nil {
		return Response{}, err
	}
	defer c.Close()
	return roundTrip(c, Request{Cmd: cmd, Args: args})
}

func roundTrip(c net.Conn, req Request) (Response, error) {
	if _, err := c.Write([]byte(req.Encode())); err != nil {
		return Response{}, err
	}
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		return Response{}, err
	}
	return ParseResponse(line)
}

type pidManager struct {
	path string
}

func defaultPidManager() (*pidManager, error) {
	path, err := PidPath()
	if err != nil {
		return nil, err
	}
	return &pidManager{path: path}, nil
}

func (p *pidManager) create() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (p *pidManager) remove() error {
	err := os.Remove(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// checkExisting fails when the pid file names a live process. Stale or
// unreadable pid files are removed.
func (p *pidManager) checkExisting() error {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || !p.isProcessAlive(pid) {
		return p.remove()
	}
	return fmt.Errorf("daemon already running with PID %d", pid)
}

func (p *pidManager) isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	// EPERM means the process exists but belongs to someone else
	return err == nil || errors.Is(err, syscall.EPERM)
}

func CheckExistingDaemon() error {
	pm, err := defaultPidManager()
	if err != nil {
		return err
	}
	return pm.checkExisting()
}

func CreatePidFile() error {
	pm, err := defaultPidManager()
	if err != nil {
		return err
	}
	return pm.create()
}

func RemovePidFile() error {
	pm, err := defaultPidManager()
	if err != nil {
		return err
	}
	return pm.remove()
}
