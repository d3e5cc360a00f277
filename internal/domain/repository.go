package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByCustomer возвращает страницу заказов клиента, новые первыми.
	ListByCustomer(customerID string, offset, limit int) ([]Order, error)
	// CountByCustomer возвращает общее число заказов клиента для пагинации.
	CountByCustomer(customerID string) (int, error)
	// List возвращает страницу всех заказов с опциональным фильтром по статусу
	// (пустой статус — без фильтра), новые первыми.
	List(status OrderStatus, offset, limit int) ([]Order, error)
	// Count возвращает общее число заказов под тем же фильтром.
	Count(status OrderStatus) (int, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
}

// ProductRepository владеет счётчиками доступного стока. Reserve и Release —
// единственные операции, мутирующие сток; точка сериализации — атомарный
// update хранилища, а не лок в процессе, потому что инстансов сервиса может
// быть несколько.
type ProductRepository interface {
	// Get возвращает товар или ErrProductNotFound.
	Get(id string) (Product, error)
	// Reserve атомарно списывает qty со стока и возвращает снапшот товара
	// для позиции заказа. ErrProductNotFound — товара нет,
	// ErrInsufficientStock — доступно меньше qty. Две конкурирующие
	// резервации, вместе превышающие сток, не могут обе пройти.
	Reserve(productID string, qty int32) (ProductSnapshot, error)
	// Release атомарно возвращает qty в сток. Вызывается ровно один раз на
	// каждую успешную резервацию — идемпотентность обеспечивает вызывающий.
	Release(productID string, qty int32) error
}

// PaymentIntentRepository хранит связки checkout-сессий с заказами.
type PaymentIntentRepository interface {
	// Create сохраняет новый intent.
	Create(intent PaymentIntent) error
	// GetBySession возвращает intent по идентификатору внешней сессии
	// или ErrIntentNotFound.
	GetBySession(sessionID string) (PaymentIntent, error)
	// Save перезаписывает intent.
	Save(intent PaymentIntent) error
}

// SequenceRepository выдаёт строго возрастающие значения именованных счётчиков.
type SequenceRepository interface {
	// Next атомарно инкрементирует счётчик и возвращает новое значение.
	// Счётчик создаётся при первом обращении (find-or-create); конкурентные
	// вызовы никогда не получают одно значение дважды. Ошибка хранилища
	// обязана провалить создание заказа целиком.
	Next(name string) (int64, error)
}
