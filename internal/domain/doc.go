// Package domain содержит сообщения relay и их XML-формат.
//
// Запрос:
//
//	<Request>
//	  <Request_GUID>g1</Request_GUID>
//	  <FileName>a.txt</FileName>
//	  <BucketName>b1</BucketName>
//	  <FileContent>aGk=</FileContent>
//	</Request>
//
// Ответ:
//
//	<Response>
//	  <Request_GUID>g1</Request_GUID>
//	  <Status>OK</Status>
//	  <Filename>a.txt</Filename>
//	  <ErrorDescription>Uploaded</ErrorDescription>
//	</Response>
package domain
