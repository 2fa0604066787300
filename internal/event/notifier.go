/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package event

import "sync"

// DefaultSubscriberBuffer is the default channel capacity per subscriber
// DefaultSubscriberBuffer 是每个订阅者的默认通道容量
const DefaultSubscriberBuffer = 64

// Notifier fans lifecycle events out to zero or more subscribers.
// Notifier 将生命周期事件分发给零个或多个订阅者。
//
// Delivery is best-effort: a subscriber whose buffer is full loses the event
// rather than delaying the producer. Publishes are serialized, so each
// subscriber observes events for a given worker in transition order.
// 投递是尽力而为的：缓冲已满的订阅者会丢失事件，而不会拖慢生产者。
// 发布是串行化的，因此每个订阅者观察到的同一工作进程的事件保持转换顺序。
type Notifier struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	closed  bool
	dropped uint64
}

// NewNotifier creates an empty notifier.
// NewNotifier 创建一个空的通知器。
func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[int]chan Event),
	}
}

// Subscribe registers a new subscriber and returns its event channel plus a
// cancel function. buffer <= 0 selects DefaultSubscriberBuffer.
// Subscribe 注册一个新订阅者，返回其事件通道和取消函数。buffer <= 0 时使用 DefaultSubscriberBuffer。
//
// The channel is closed when the subscription is cancelled or the notifier
// is closed.
// 订阅被取消或通知器被关闭时，通道会被关闭。
func (n *Notifier) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan Event, buffer)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		close(ch)
		return ch, func() {}
	}

	id := n.nextID
	n.nextID++
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking.
// Publish 将事件投递给每个订阅者且不阻塞。
func (n *Notifier) Publish(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber, drop rather than block the state machine
			// 订阅者过慢，丢弃而不阻塞状态机
			n.dropped++
		}
	}
}

// Dropped returns how many events were discarded due to full subscriber
// buffers since the notifier was created.
// Dropped 返回自通知器创建以来因订阅者缓冲已满而被丢弃的事件数量。
func (n *Notifier) Dropped() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropped
}

// SubscriberCount returns the number of active subscribers.
// SubscriberCount 返回活跃订阅者数量。
func (n *Notifier) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Close closes every subscriber channel and rejects further publishes.
// Close 关闭所有订阅者通道并拒绝后续发布。
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true

	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
