package looper

// wakeChannel is a non-blocking, cross-goroutine interrupt signal.
//
// Any number of signal calls between two drain calls are observed by the
// owner as a single wake.
type wakeChannel struct {
	readFD  int
	writeFD int
	buf     [16]byte
}

func newWakeChannel() (*wakeChannel, error) {
	readFD, writeFD, err := createWakeFd()
	if err != nil {
		return nil, err
	}
	return &wakeChannel{readFD: readFD, writeFD: writeFD}, nil
}

func (w *wakeChannel) close() error {
	err := closeFD(w.readFD)
	if w.writeFD != w.readFD {
		if err2 := closeFD(w.writeFD); err == nil {
			err = err2
		}
	}
	return err
}
