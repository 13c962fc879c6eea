package worker

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Task 交給背景 worker 執行的工作
type Task func()

// Pool 背景工作池；Stop 會等待已排入的工作做完
type Pool interface {
	// Submit 不會阻塞；回傳 false 表示工作池已停止或佇列已滿，工作被捨棄
	Submit(Task) bool
	Stop()
}

// queuePerWorker 每個 worker 可預先排隊的工作數
const queuePerWorker = 16

// NewPool 建立 n 個 worker，n<=0 時視為 1
func NewPool(n int, log logrus.FieldLogger) Pool {
	if n <= 0 {
		n = 1
	}
	p := &pool{jobs: make(chan Task, n*queuePerWorker), log: log}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.run()
	}
	return p
}

type pool struct {
	mu      sync.RWMutex
	stopped bool
	jobs    chan Task
	wg      sync.WaitGroup
	log     logrus.FieldLogger
}

func (p *pool) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		if job != nil {
			p.exec(job)
		}
	}
}

// exec 單一工作 panic 不會讓 worker 結束
func (p *pool) exec(job Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("panic", r).Error("背景工作發生 panic")
		}
	}()
	job()
}

func (p *pool) Submit(t Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobs <- t:
		return true
	default:
		p.log.Debug("工作佇列已滿，捨棄背景工作")
		return false
	}
}

func (p *pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
